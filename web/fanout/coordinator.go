package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
	"github.com/gaswatch-project/gaswatch/internal/push"
	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/gaswatch-project/gaswatch/web/observability"
	"github.com/gaswatch-project/gaswatch/web/repositories"
)

const defaultMaxParallel = 16

type Config struct {
	Credentials     push.Credentials
	DeliveryTimeout time.Duration
	MaxParallel     int
	Icon            string
}

// AlertHandler runs a fan-out pass for an alert event.
type AlertHandler interface {
	DispatchAlert(ctx context.Context, event alerting.AlertEvent) Report
}

type Coordinator struct {
	subscriptions repositories.SubscriptionsRepository
	sender        push.Sender
	config        Config
	metrics       *observability.Metrics
	encode        func(push.Notification) ([]byte, error)
}

func NewCoordinator(subscriptions repositories.SubscriptionsRepository, sender push.Sender, config Config, metrics *observability.Metrics) *Coordinator {
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = push.DefaultTimeout
	}
	if config.MaxParallel <= 0 {
		config.MaxParallel = defaultMaxParallel
	}

	return &Coordinator{
		subscriptions: subscriptions,
		sender:        sender,
		config:        config,
		metrics:       metrics,
		encode:        push.Notification.Encode,
	}
}

// DispatchAlert delivers the alert to every live subscription and prunes the ones whose
// endpoint is gone. Subscriptions are loaded fresh on every call and each one is handled
// in isolation: a failing subscriber never prevents delivery to the others.
func (c *Coordinator) DispatchAlert(ctx context.Context, event alerting.AlertEvent) (report Report) {
	start := time.Now()
	report = Report{
		PassID: uuid.NewString(),
		Event:  event,
		Status: PassCompleted,
	}

	logger := log.WithFields(log.Fields{
		"pass_id":    report.PassID,
		"reading_id": event.ReadingID,
		"device_id":  event.DeviceID,
		"gas_level":  event.GasLevel,
	})

	defer func() {
		report.Duration = time.Since(start)
		c.metrics.FanoutPass(string(report.Status), report.Duration)
		logger.WithFields(log.Fields{
			"status":         report.Status,
			"attempted":      report.Attempted,
			"delivered":      report.Delivered,
			"gone":           report.Gone,
			"failed":         report.Failed,
			"prune_failures": report.PruneFailures,
		}).Info("Alert fan-out finished")
	}()

	if !c.config.Credentials.Configured() {
		report.Status = PassConfigurationError
		report.Err = push.ErrMissingCredentials
		logger.Error(report.Err)
		return report
	}

	subscriptions, err := c.subscriptions.List(ctx)
	if err != nil {
		report.Status = PassLoadError
		report.Err = errors.Wrap(err, "could not load the subscriptions")
		logger.Error(report.Err)
		return report
	}

	if len(subscriptions) == 0 {
		return report
	}

	payload, err := c.encode(push.NewGasAlertNotification(event.GasLevel, c.config.Icon))
	if err != nil {
		report.Status = PassEncodingError
		report.Err = errors.Wrap(err, "could not encode the notification")
		logger.Error(report.Err)
		return report
	}

	t := &tally{report: &report}
	sem := make(chan struct{}, c.config.MaxParallel)
	var wg sync.WaitGroup

	for _, subscription := range subscriptions {
		wg.Add(1)
		sem <- struct{}{}

		go func(subscription models.Subscription) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, pruneErr := c.deliver(ctx, logger, subscription, payload)
			t.record(outcome, pruneErr)
		}(subscription)
	}

	wg.Wait()

	return report
}

func (c *Coordinator) deliver(ctx context.Context, logger *log.Entry, subscription models.Subscription, payload []byte) (outcome push.Outcome, pruneErr error) {
	logger = logger.WithField("subscription_id", subscription.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Push delivery panicked: %v", r)
			outcome = push.TransientFailure
		}
		c.metrics.Delivery(outcome.String())
	}()

	keys, err := decodeKeys(subscription.Keys)
	if err != nil {
		logger.Errorf("can't decode subscription keys: %s", err)
		return push.TransientFailure, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.config.DeliveryTimeout)
	defer cancel()

	result := c.sender.Send(sendCtx, push.Target{Endpoint: subscription.Endpoint, Keys: keys}, payload)

	switch result.Outcome {
	case push.Delivered:
		logger.Debug("Alert delivered")
	case push.Gone:
		logger.Infof("Subscription endpoint gone (status %d), removing it", result.StatusCode)
		if err := c.subscriptions.Delete(ctx, subscription.ID); err != nil {
			logger.Errorf("could not remove the gone subscription: %s", err)
			return push.Gone, err
		}
		c.metrics.SubscriptionPruned()
	default:
		logger.Warnf("Alert delivery failed: %s", result.Err)
		return push.TransientFailure, nil
	}

	return result.Outcome, nil
}

func decodeKeys(raw datatypes.JSON) (push.Keys, error) {
	var keys push.Keys

	if len(raw) == 0 {
		return keys, errors.New("subscription has no delivery keys")
	}

	if err := json.Unmarshal(raw, &keys); err != nil {
		return keys, err
	}

	if keys.P256dh == "" || keys.Auth == "" {
		return keys, errors.New("subscription delivery keys are incomplete")
	}

	return keys, nil
}
