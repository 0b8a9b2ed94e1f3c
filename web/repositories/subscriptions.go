package repositories

import (
	"context"

	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrDuplicateEndpoint = errors.New("a subscription with the same endpoint already exists")

type SubscriptionsRepository interface {
	FindByEndpoint(ctx context.Context, endpoint string) (*models.Subscription, error)
	Create(ctx context.Context, subscription models.Subscription) (models.Subscription, error)
	List(ctx context.Context) ([]models.Subscription, error)
	Delete(ctx context.Context, id uint) error
}

type subscriptionsRepository struct {
	db *gorm.DB
}

func NewSubscriptionsRepository(db *gorm.DB) *subscriptionsRepository {
	return &subscriptionsRepository{db: db}
}

// FindByEndpoint returns nil without error when no subscription uses the endpoint.
func (r *subscriptionsRepository) FindByEndpoint(ctx context.Context, endpoint string) (*models.Subscription, error) {
	var subscription models.Subscription
	result := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Limit(1).Find(&subscription)

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, nil
	}

	return &subscription, nil
}

func (r *subscriptionsRepository) Create(ctx context.Context, subscription models.Subscription) (models.Subscription, error) {
	subscription.ID = 0
	result := r.db.WithContext(ctx).Create(&subscription)

	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return models.Subscription{}, ErrDuplicateEndpoint
	}

	return subscription, result.Error
}

func (r *subscriptionsRepository) List(ctx context.Context) ([]models.Subscription, error) {
	subscriptions := []models.Subscription{}
	result := r.db.WithContext(ctx).Order("id").Find(&subscriptions)

	if result.Error != nil {
		return nil, result.Error
	}

	return subscriptions, nil
}

func (r *subscriptionsRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Subscription{}, id)

	return result.Error
}
