package services

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/gaswatch-project/gaswatch/web/observability"
	"github.com/gaswatch-project/gaswatch/web/repositories"
)

// AlertDispatcher hands an alert over to the background fan-out. Dispatch must not block.
type AlertDispatcher interface {
	Dispatch(event alerting.AlertEvent) bool
}

type ReadingInput struct {
	DeviceID string
	GasLevel *int64
	// CapturedAt defaults to the ingestion time when zero.
	CapturedAt time.Time
}

type IngestionService struct {
	readings   repositories.ReadingsRepository
	policy     alerting.Policy
	dispatcher AlertDispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewIngestionService(readings repositories.ReadingsRepository, policy alerting.Policy, dispatcher AlertDispatcher, metrics *observability.Metrics) *IngestionService {
	return &IngestionService{
		readings:   readings,
		policy:     policy,
		dispatcher: dispatcher,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Ingest validates and stores a reading, then queues an alert when the policy fires.
// The alert is only queued once the reading is stored, and fan-out problems never
// turn a stored reading into a failed ingest.
func (s *IngestionService) Ingest(ctx context.Context, input ReadingInput) (uint, error) {
	deviceID := strings.TrimSpace(input.DeviceID)
	if deviceID == "" {
		return 0, NewValidationError("deviceId is required")
	}

	if input.GasLevel == nil {
		return 0, NewValidationError("gas_level is required")
	}

	capturedAt := input.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}

	reading, err := s.readings.Create(ctx, models.Reading{
		DeviceID:   deviceID,
		GasLevel:   *input.GasLevel,
		CapturedAt: capturedAt.UTC(),
	})
	if err != nil {
		log.Errorf("could not store the reading of device %s: %s", deviceID, err)
		return 0, NewPersistenceError("store the reading", err)
	}

	s.metrics.ReadingIngested()
	log.Debugf("Reading %d stored: device %s, gas level %d", reading.ID, reading.DeviceID, reading.GasLevel)

	if s.policy.ShouldAlert(reading.GasLevel) {
		log.Warnf("Gas level %d from device %s reached the alert threshold %d",
			reading.GasLevel, reading.DeviceID, s.policy.Threshold)
		s.dispatcher.Dispatch(alerting.NewAlertEvent(reading.ID, reading.DeviceID, reading.GasLevel))
	}

	return reading.ID, nil
}
