package repositories

import (
	"context"

	"github.com/gaswatch-project/gaswatch/web/models"
	"gorm.io/gorm"
)

type ReadingsRepository interface {
	Create(ctx context.Context, reading models.Reading) (models.Reading, error)
	ListRecent(ctx context.Context, limit int) ([]models.Reading, error)
}

type readingsRepository struct {
	db *gorm.DB
}

func NewReadingsRepository(db *gorm.DB) *readingsRepository {
	return &readingsRepository{db: db}
}

// Create appends the reading and returns the stored copy, carrying the assigned ID.
func (r *readingsRepository) Create(ctx context.Context, reading models.Reading) (models.Reading, error) {
	reading.ID = 0
	result := r.db.WithContext(ctx).Create(&reading)

	return reading, result.Error
}

// ListRecent returns at most limit readings, newest capture first. Readings sharing a
// capture time are returned newest insert first.
func (r *readingsRepository) ListRecent(ctx context.Context, limit int) ([]models.Reading, error) {
	readings := []models.Reading{}
	result := r.db.WithContext(ctx).
		Order("captured_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&readings)

	if result.Error != nil {
		return nil, result.Error
	}

	return readings, nil
}
