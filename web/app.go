package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
	"github.com/gaswatch-project/gaswatch/internal/db"
	"github.com/gaswatch-project/gaswatch/internal/push"
	"github.com/gaswatch-project/gaswatch/internal/sensors"
	"github.com/gaswatch-project/gaswatch/web/fanout"
	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/gaswatch-project/gaswatch/web/observability"
	"github.com/gaswatch-project/gaswatch/web/repositories"
	"github.com/gaswatch-project/gaswatch/web/services"
)

const (
	AlertsTransportMemory = "memory"
	AlertsTransportKafka  = "kafka"

	shutdownTimeout = 15 * time.Second
)

type Config struct {
	Host string
	Port int

	DBConfig *db.Config

	AlertThreshold        int64
	Credentials           push.CredentialsConfig
	DeliveryTimeout       time.Duration
	MaxParallelDeliveries int
	NotificationIcon      string

	FanoutWorkers   int
	FanoutQueueSize int
	AlertsTransport string
	Kafka           fanout.KafkaConfig

	// MQTT is optional: readings are only consumed from the broker when set.
	MQTT *sensors.Config
}

type App struct {
	config *Config
	Dependencies
}

type Dependencies struct {
	engine               *gin.Engine
	db                   *gorm.DB
	metrics              *observability.Metrics
	credentials          push.Credentials
	ingestionService     *services.IngestionService
	readingsService      *services.ReadingsService
	subscriptionsService *services.SubscriptionsService
	coordinator          *fanout.Coordinator
	pool                 *fanout.Pool
	kafkaConsumer        *fanout.KafkaConsumer
	mqttListener         *sensors.Listener
	closers              []func() error
}

func DefaultDependencies(config *Config) (Dependencies, error) {
	dbConn, err := db.InitDB(config.DBConfig)
	if err != nil {
		return Dependencies{}, errors.Wrap(err, "could not connect to the database")
	}

	if err := MigrateDB(dbConn); err != nil {
		return Dependencies{}, err
	}

	credentials, err := push.LoadCredentials(afero.NewOsFs(), config.Credentials)
	if err != nil {
		return Dependencies{}, err
	}
	if !credentials.Configured() {
		log.Warn("No VAPID private key configured: alerts will not be delivered")
	}

	sender := push.NewClient(credentials, config.DeliveryTimeout)
	engine := gin.Default()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	return NewDependencies(config, engine, dbConn, credentials, sender, metrics)
}

// NewDependencies wires the stores, services and the fan-out pipeline on top of an
// already opened database.
func NewDependencies(config *Config, engine *gin.Engine, dbConn *gorm.DB, credentials push.Credentials, sender push.Sender, metrics *observability.Metrics) (Dependencies, error) {
	readingsRepository := repositories.NewReadingsRepository(dbConn)
	subscriptionsRepository := repositories.NewSubscriptionsRepository(dbConn)

	coordinator := fanout.NewCoordinator(subscriptionsRepository, sender, fanout.Config{
		Credentials:     credentials,
		DeliveryTimeout: config.DeliveryTimeout,
		MaxParallel:     config.MaxParallelDeliveries,
		Icon:            config.NotificationIcon,
	}, metrics)

	deps := Dependencies{
		engine:      engine,
		db:          dbConn,
		metrics:     metrics,
		credentials: credentials,
		coordinator: coordinator,
	}

	switch config.AlertsTransport {
	case "", AlertsTransportMemory:
		deps.pool = fanout.NewPool(config.FanoutWorkers, config.FanoutQueueSize, fanout.CoordinatorHandler(coordinator), metrics)
	case AlertsTransportKafka:
		writer, err := fanout.NewKafkaWriter(config.Kafka)
		if err != nil {
			return Dependencies{}, err
		}
		reader, err := fanout.NewKafkaReader(config.Kafka)
		if err != nil {
			return Dependencies{}, err
		}

		publisher := fanout.NewKafkaPublisher(writer)
		deps.pool = fanout.NewPool(config.FanoutWorkers, config.FanoutQueueSize, publisher.Handler(), metrics)
		deps.kafkaConsumer = fanout.NewKafkaConsumer(reader, coordinator)
		deps.closers = append(deps.closers, writer.Close, reader.Close)
	default:
		return Dependencies{}, errors.Errorf("unknown alerts transport %q", config.AlertsTransport)
	}

	deps.ingestionService = services.NewIngestionService(
		readingsRepository, alerting.NewPolicy(config.AlertThreshold), deps.pool, metrics)
	deps.readingsService = services.NewReadingsService(readingsRepository)
	deps.subscriptionsService = services.NewSubscriptionsService(subscriptionsRepository)

	if config.MQTT != nil {
		listener, err := sensors.NewListener(config.MQTT, ingestSensorReading(deps.ingestionService))
		if err != nil {
			return Dependencies{}, err
		}
		deps.mqttListener = listener
	}

	return deps, nil
}

// shortcut to use default dependencies
func NewApp(config *Config) (*App, error) {
	deps, err := DefaultDependencies(config)
	if err != nil {
		return nil, err
	}

	return NewAppWithDeps(config, deps)
}

func NewAppWithDeps(config *Config, deps Dependencies) (*App, error) {
	app := &App{
		config:       config,
		Dependencies: deps,
	}

	engine := deps.engine
	engine.Use(deps.metrics.Middleware())
	engine.Use(ErrorHandler)

	engine.POST("/mediciones", CreateReadingHandler(deps.ingestionService))
	engine.GET("/mediciones", ListReadingsHandler(deps.readingsService))
	engine.POST("/save-subscription", SaveSubscriptionHandler(deps.subscriptionsService))
	engine.GET("/metrics", gin.WrapH(deps.metrics.Handler()))

	apiGroup := engine.Group("/api")
	{
		apiGroup.GET("/ping", ApiPingHandler)
		apiGroup.GET("/vapid-public-key", ApiVapidPublicKeyHandler(deps.credentials))
	}

	return app, nil
}

func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(models.Reading{}, models.Subscription{})
	if err != nil {
		return errors.Wrap(err, "could not migrate the database")
	}

	return nil
}

// Start serves HTTP until ctx is cancelled, then drains the fan-out workers.
func (a *App) Start(ctx context.Context) error {
	s := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", a.config.Host, a.config.Port),
		Handler:        a,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	a.pool.Start()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	if a.kafkaConsumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.kafkaConsumer.Run(ctx); err != nil {
				log.Errorf("Alerts consumer failed: %s", err)
			}
		}()
	}

	if a.mqttListener != nil {
		if err := a.mqttListener.Start(); err != nil {
			log.Errorf("Mqtt ingestion disabled: %s", err)
		} else {
			defer a.mqttListener.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", s.Addr)
		errCh <- s.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		log.Info("Shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error while shutting down the http server: %s", err)
		}
	}

	a.pool.Stop()
	cancel()
	wg.Wait()

	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Errorf("Error while closing resources: %s", err)
		}
	}

	return serveErr
}

func (a *App) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	a.engine.ServeHTTP(w, req)
}

func ingestSensorReading(ingestionService *services.IngestionService) sensors.IngestFunc {
	return func(ctx context.Context, reading sensors.Reading) error {
		_, err := ingestionService.Ingest(ctx, services.ReadingInput{
			DeviceID:   reading.DeviceID,
			GasLevel:   reading.GasLevel,
			CapturedAt: reading.CapturedAt,
		})
		return err
	}
}
