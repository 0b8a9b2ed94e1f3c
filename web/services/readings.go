package services

import (
	"context"

	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/gaswatch-project/gaswatch/web/repositories"
)

const MaxListLimit = 100

type ReadingsService struct {
	readings repositories.ReadingsRepository
}

func NewReadingsService(readings repositories.ReadingsRepository) *ReadingsService {
	return &ReadingsService{readings: readings}
}

// ListRecent returns the newest readings first. Limits outside 1..MaxListLimit fall back to MaxListLimit.
func (s *ReadingsService) ListRecent(ctx context.Context, limit int) ([]models.Reading, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	readings, err := s.readings.ListRecent(ctx, limit)
	if err != nil {
		return nil, NewPersistenceError("list the readings", err)
	}

	return readings, nil
}
