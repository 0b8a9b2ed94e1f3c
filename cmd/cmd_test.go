package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaswatch-project/gaswatch/internal/sensors"
	"github.com/gaswatch-project/gaswatch/web"
)

func bindServeFlags(t *testing.T, args ...string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	serveCmd := NewWebServeCmd()
	require.NoError(t, serveCmd.ParseFlags(args))
	require.NoError(t, viper.BindPFlags(serveCmd.Flags()))
}

func TestLoadConfig_Defaults(t *testing.T) {
	bindServeFlags(t)

	config := LoadConfig()

	assert.Equal(t, "0.0.0.0", config.Host)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "postgres", config.DBConfig.Driver)
	assert.Equal(t, "5432", config.DBConfig.Port)
	assert.Equal(t, int64(700), config.AlertThreshold)
	assert.Equal(t, 10*time.Second, config.DeliveryTimeout)
	assert.Equal(t, web.AlertsTransportMemory, config.AlertsTransport)
	assert.Equal(t, "gaswatch.alerts", config.Kafka.Topic)
	assert.Nil(t, config.MQTT)
}

func TestLoadConfig_Flags(t *testing.T) {
	bindServeFlags(t,
		"--port", "9090",
		"--db-driver", "sqlite",
		"--db-dsn", "file:gaswatch.db",
		"--alert-threshold", "500",
		"--vapid-private-key-file", "/etc/gaswatch/vapid.key",
		"--delivery-timeout", "3s",
		"--alerts-transport", "kafka",
		"--kafka-brokers", "k1:9092,k2:9092",
		"--mqtt-broker", "tcp://broker:1883",
	)

	config := LoadConfig()

	assert.Equal(t, 9090, config.Port)
	assert.Equal(t, "sqlite", config.DBConfig.Driver)
	assert.Equal(t, "file:gaswatch.db", config.DBConfig.ConnectionString())
	assert.Equal(t, int64(500), config.AlertThreshold)
	assert.Equal(t, "/etc/gaswatch/vapid.key", config.Credentials.PrivateKeyFile)
	assert.Equal(t, 3*time.Second, config.DeliveryTimeout)
	assert.Equal(t, web.AlertsTransportKafka, config.AlertsTransport)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, config.Kafka.Brokers)
	require.NotNil(t, config.MQTT)
	assert.Equal(t, "tcp://broker:1883", config.MQTT.Broker)
	assert.Equal(t, sensors.DefaultTopic, config.MQTT.Topic)
}

func TestLoadConfig_Env(t *testing.T) {
	bindServeFlags(t)
	t.Setenv("GASWATCH_ALERT_THRESHOLD", "650")
	t.Setenv("GASWATCH_VAPID_SUBSCRIBER", "mailto:ops@example.com")

	require.NoError(t, initConfig())
	config := LoadConfig()

	assert.Equal(t, int64(650), config.AlertThreshold)
	assert.Equal(t, "mailto:ops@example.com", config.Credentials.Subscriber)
}

func TestVapidGenerate(t *testing.T) {
	out := &bytes.Buffer{}
	vapidCmd := NewVapidCmd()
	vapidCmd.SetOut(out)
	vapidCmd.SetArgs([]string{"generate", "--subscriber", "mailto:ops@example.com"})

	require.NoError(t, vapidCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "GASWATCH_VAPID_PUBLIC_KEY="))
	assert.True(t, strings.HasPrefix(lines[1], "GASWATCH_VAPID_PRIVATE_KEY="))
	assert.Equal(t, "GASWATCH_VAPID_SUBSCRIBER=ops@example.com", lines[2])
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	logLevel = "loud"
	t.Cleanup(func() { logLevel = "info" })

	assert.Error(t, initLogger())
}
