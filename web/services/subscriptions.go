package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/gaswatch-project/gaswatch/web/repositories"
)

type RegistrationStatus int

const (
	Created RegistrationStatus = iota
	AlreadyRegistered
)

func (s RegistrationStatus) String() string {
	if s == AlreadyRegistered {
		return "already_registered"
	}

	return "created"
}

// SubscriptionDescriptor is the PushSubscription object serialized by the browser.
type SubscriptionDescriptor struct {
	Endpoint string                 `mapstructure:"endpoint"`
	Keys     map[string]interface{} `mapstructure:"keys"`
}

// ParseSubscriptionDescriptor extracts the endpoint and keys from an opaque descriptor,
// ignoring every other field.
func ParseSubscriptionDescriptor(descriptor map[string]interface{}) (SubscriptionDescriptor, error) {
	var parsed SubscriptionDescriptor

	if err := mapstructure.Decode(descriptor, &parsed); err != nil {
		return SubscriptionDescriptor{}, NewValidationError("invalid subscription: %s", err)
	}

	return parsed, nil
}

type SubscriptionsService struct {
	subscriptions repositories.SubscriptionsRepository
}

func NewSubscriptionsService(subscriptions repositories.SubscriptionsRepository) *SubscriptionsService {
	return &SubscriptionsService{subscriptions: subscriptions}
}

// Register stores the subscription unless one with the same endpoint already exists.
func (s *SubscriptionsService) Register(ctx context.Context, endpoint string, keys map[string]interface{}) (RegistrationStatus, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Created, NewValidationError("endpoint is required")
	}

	existing, err := s.subscriptions.FindByEndpoint(ctx, endpoint)
	if err != nil {
		return Created, NewPersistenceError("look up the subscription", err)
	}

	if existing != nil {
		return AlreadyRegistered, nil
	}

	if keys == nil {
		keys = map[string]interface{}{}
	}

	rawKeys, err := json.Marshal(keys)
	if err != nil {
		return Created, NewValidationError("invalid subscription keys: %s", err)
	}

	_, err = s.subscriptions.Create(ctx, models.Subscription{
		Endpoint: endpoint,
		Keys:     datatypes.JSON(rawKeys),
	})
	if errors.Is(err, repositories.ErrDuplicateEndpoint) {
		return AlreadyRegistered, nil
	}
	if err != nil {
		return Created, NewPersistenceError("store the subscription", err)
	}

	log.Infof("New push subscription registered")

	return Created, nil
}
