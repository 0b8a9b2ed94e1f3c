package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
	"github.com/gaswatch-project/gaswatch/internal/push"
	"github.com/gaswatch-project/gaswatch/test/helpers"
	"github.com/gaswatch-project/gaswatch/web/fanout"
	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/gaswatch-project/gaswatch/web/repositories"
	"github.com/gaswatch-project/gaswatch/web/repositories/mocks"
)

type IngestionServiceTestSuite struct {
	suite.Suite
	db         *gorm.DB
	dispatcher *fakeDispatcher
	service    *IngestionService
}

func TestIngestionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IngestionServiceTestSuite))
}

func (suite *IngestionServiceTestSuite) SetupTest() {
	suite.db = helpers.SetupTestDatabase(suite.T())
	suite.dispatcher = &fakeDispatcher{}
	suite.service = NewIngestionService(
		repositories.NewReadingsRepository(suite.db),
		alerting.NewPolicy(alerting.DefaultThreshold),
		suite.dispatcher,
		nil,
	)
}

func (suite *IngestionServiceTestSuite) countReadings() int64 {
	var count int64
	suite.db.Model(&models.Reading{}).Count(&count)

	return count
}

func (suite *IngestionServiceTestSuite) TestIngest_BelowThreshold() {
	id, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(120)})

	suite.NoError(err)
	suite.NotZero(id)
	suite.Equal(int64(1), suite.countReadings())
	suite.Empty(suite.dispatcher.dispatched())
}

func (suite *IngestionServiceTestSuite) TestIngest_AboveThresholdDispatchesAfterPersist() {
	id, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(800)})
	suite.NoError(err)

	events := suite.dispatcher.dispatched()
	suite.Require().Len(events, 1)
	suite.Equal(id, events[0].ReadingID)
	suite.Equal(int64(800), events[0].GasLevel)
	suite.Equal("d1", events[0].DeviceID)

	var stored models.Reading
	suite.NoError(suite.db.First(&stored, events[0].ReadingID).Error)
	suite.Equal(int64(800), stored.GasLevel)
}

func (suite *IngestionServiceTestSuite) TestIngest_ThresholdBoundaryFires() {
	_, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(700)})

	suite.NoError(err)
	suite.Len(suite.dispatcher.dispatched(), 1)
}

func (suite *IngestionServiceTestSuite) TestIngest_MissingDeviceID() {
	for _, deviceID := range []string{"", "   "} {
		_, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: deviceID, GasLevel: int64Ptr(900)})

		var validationErr *ValidationError
		suite.True(errors.As(err, &validationErr))
	}

	suite.Equal(int64(0), suite.countReadings())
	suite.Empty(suite.dispatcher.dispatched())
}

func (suite *IngestionServiceTestSuite) TestIngest_MissingGasLevel() {
	_, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: "d1"})

	var validationErr *ValidationError
	suite.True(errors.As(err, &validationErr))
	suite.Equal(int64(0), suite.countReadings())
	suite.Empty(suite.dispatcher.dispatched())
}

func (suite *IngestionServiceTestSuite) TestIngest_DefaultsCaptureTime() {
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	suite.service.now = func() time.Time { return fixed }

	id, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(1)})
	suite.NoError(err)

	var stored models.Reading
	suite.NoError(suite.db.First(&stored, id).Error)
	suite.True(fixed.Equal(stored.CapturedAt))
}

func (suite *IngestionServiceTestSuite) TestIngest_KeepsProvidedCaptureTime() {
	capturedAt := time.Date(2023, 12, 24, 18, 30, 0, 0, time.FixedZone("CET", 3600))

	id, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(1), CapturedAt: capturedAt})
	suite.NoError(err)

	var stored models.Reading
	suite.NoError(suite.db.First(&stored, id).Error)
	suite.True(capturedAt.Equal(stored.CapturedAt))
}

func (suite *IngestionServiceTestSuite) TestIngest_DroppedAlertDoesNotFailIngest() {
	suite.dispatcher.refuse = true

	id, err := suite.service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(1500)})

	suite.NoError(err)
	suite.NotZero(id)
	suite.Equal(int64(1), suite.countReadings())
}

func (suite *IngestionServiceTestSuite) TestIngest_OneFanoutPassCoversAllSubscriptions() {
	subscriptions := repositories.NewSubscriptionsRepository(suite.db)
	keys, _ := json.Marshal(push.Keys{P256dh: "key", Auth: "secret"})
	for _, endpoint := range []string{"https://push.example.com/1", "https://push.example.com/2", "https://push.example.com/3"} {
		_, err := subscriptions.Create(context.Background(), models.Subscription{Endpoint: endpoint, Keys: datatypes.JSON(keys)})
		suite.Require().NoError(err)
	}

	var sends int32
	sender := senderFunc(func(ctx context.Context, target push.Target, payload []byte) push.Result {
		atomic.AddInt32(&sends, 1)
		return push.Result{Outcome: push.TransientFailure, Err: errors.New("push service down")}
	})

	coordinator := fanout.NewCoordinator(subscriptions, sender, fanout.Config{
		Credentials: push.Credentials{PrivateKey: "private"},
	}, nil)

	var passes int32
	var lastReport fanout.Report
	pool := fanout.NewPool(2, 8, func(ctx context.Context, event alerting.AlertEvent) {
		atomic.AddInt32(&passes, 1)
		lastReport = coordinator.DispatchAlert(ctx, event)
	}, nil)
	pool.Start()

	service := NewIngestionService(repositories.NewReadingsRepository(suite.db), alerting.NewPolicy(700), pool, nil)
	_, err := service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(800)})
	suite.NoError(err)

	pool.Stop()

	suite.Equal(int32(1), atomic.LoadInt32(&passes))
	suite.Equal(int32(3), atomic.LoadInt32(&sends))
	suite.Equal(3, lastReport.Attempted)
	suite.Equal(3, lastReport.Failed)
}

type senderFunc func(ctx context.Context, target push.Target, payload []byte) push.Result

func (f senderFunc) Send(ctx context.Context, target push.Target, payload []byte) push.Result {
	return f(ctx, target, payload)
}

func TestIngest_PersistenceFailure(t *testing.T) {
	readings := new(mocks.ReadingsRepository)
	readings.On("Create", mock.Anything, mock.Anything).Return(models.Reading{}, errors.New("connection refused"))
	dispatcher := &fakeDispatcher{}

	service := NewIngestionService(readings, alerting.NewPolicy(700), dispatcher, nil)
	_, err := service.Ingest(context.Background(), ReadingInput{DeviceID: "d1", GasLevel: int64Ptr(900)})

	var persistenceErr *PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("expected a persistence error, got %v", err)
	}
	if len(dispatcher.dispatched()) != 0 {
		t.Fatal("no alert must be dispatched when the reading was not stored")
	}
}
