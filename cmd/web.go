package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
	"github.com/gaswatch-project/gaswatch/internal/db"
	"github.com/gaswatch-project/gaswatch/internal/push"
	"github.com/gaswatch-project/gaswatch/internal/sensors"
	"github.com/gaswatch-project/gaswatch/web"
	"github.com/gaswatch-project/gaswatch/web/fanout"
)

func NewWebCmd() *cobra.Command {
	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Command tree related to the web application component",
	}

	webCmd.AddCommand(NewWebServeCmd())

	return webCmd
}

func NewWebServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the web application",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	flags := serveCmd.Flags()
	flags.String("host", "0.0.0.0", "The host to bind the HTTP service to")
	flags.Int("port", 8080, "The port for the HTTP service to listen at")

	flags.String("db-driver", db.DriverPostgres, "The database driver (postgres, sqlite)")
	flags.String("db-dsn", "", "The full database connection string, takes precedence over the other db flags")
	flags.String("db-host", "localhost", "The database host")
	flags.Int("db-port", 5432, "The database port")
	flags.String("db-user", "postgres", "The database user")
	flags.String("db-password", "postgres", "The database password")
	flags.String("db-name", "gaswatch", "The database name")

	flags.Int64("alert-threshold", alerting.DefaultThreshold, "The gas level at which an alert is sent to the subscribers")
	flags.String("vapid-public-key", "", "The VAPID public key")
	flags.String("vapid-private-key", "", "The VAPID private key")
	flags.String("vapid-public-key-file", "", "A file holding the VAPID public key")
	flags.String("vapid-private-key-file", "", "A file holding the VAPID private key")
	flags.String("vapid-subscriber", "", "The e-mail contact sent to the push services, a leading mailto: is accepted")
	flags.Duration("delivery-timeout", push.DefaultTimeout, "The timeout of a single push delivery")
	flags.Int("max-parallel-deliveries", 16, "The maximum number of concurrent push deliveries in one fan-out pass")
	flags.String("notification-icon", push.DefaultIcon, "The icon shown with the push notification")

	flags.Int("fanout-workers", fanout.DefaultWorkers, "The number of fan-out workers")
	flags.Int("fanout-queue-size", fanout.DefaultBufferSize, "The number of pending alerts after which new ones are dropped")
	flags.String("alerts-transport", web.AlertsTransportMemory, "How alerts reach the fan-out (memory, kafka)")
	flags.StringSlice("kafka-brokers", []string{}, "The kafka brokers used by the kafka alerts transport")
	flags.String("kafka-topic", fanout.DefaultKafkaTopic, "The kafka topic alerts are relayed on")
	flags.String("kafka-group-id", fanout.DefaultKafkaGroupID, "The kafka consumer group running the fan-out")

	flags.String("mqtt-broker", "", "The mqtt broker to consume readings from, disabled when empty")
	flags.String("mqtt-topic", sensors.DefaultTopic, "The mqtt topic readings are published on")
	flags.String("mqtt-client-id", sensors.DefaultClientID, "The mqtt client id")

	return serveCmd
}

// LoadConfig builds the web application configuration out of flags, environment and config file.
func LoadConfig() *web.Config {
	config := &web.Config{
		Host: viper.GetString("host"),
		Port: viper.GetInt("port"),
		DBConfig: &db.Config{
			Driver:   viper.GetString("db-driver"),
			DSN:      viper.GetString("db-dsn"),
			Host:     viper.GetString("db-host"),
			Port:     viper.GetString("db-port"),
			User:     viper.GetString("db-user"),
			Password: viper.GetString("db-password"),
			DBName:   viper.GetString("db-name"),
		},
		AlertThreshold: viper.GetInt64("alert-threshold"),
		Credentials: push.CredentialsConfig{
			PublicKey:      viper.GetString("vapid-public-key"),
			PrivateKey:     viper.GetString("vapid-private-key"),
			PublicKeyFile:  viper.GetString("vapid-public-key-file"),
			PrivateKeyFile: viper.GetString("vapid-private-key-file"),
			Subscriber:     viper.GetString("vapid-subscriber"),
		},
		DeliveryTimeout:       viper.GetDuration("delivery-timeout"),
		MaxParallelDeliveries: viper.GetInt("max-parallel-deliveries"),
		NotificationIcon:      viper.GetString("notification-icon"),
		FanoutWorkers:         viper.GetInt("fanout-workers"),
		FanoutQueueSize:       viper.GetInt("fanout-queue-size"),
		AlertsTransport:       viper.GetString("alerts-transport"),
		Kafka: fanout.KafkaConfig{
			Brokers: viper.GetStringSlice("kafka-brokers"),
			Topic:   viper.GetString("kafka-topic"),
			GroupID: viper.GetString("kafka-group-id"),
		},
	}

	if broker := viper.GetString("mqtt-broker"); broker != "" {
		config.MQTT = &sensors.Config{
			Broker:   broker,
			Topic:    viper.GetString("mqtt-topic"),
			ClientID: viper.GetString("mqtt-client-id"),
		}
	}

	return config
}

func serve() error {
	app, err := web.NewApp(LoadConfig())
	if err != nil {
		return errors.Wrap(err, "failed to create the web application instance")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		log.Errorf("Failed to start the web application service: %s", err)
		return err
	}

	return nil
}
