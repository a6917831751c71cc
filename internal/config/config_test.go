package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
)

func TestNewAgentConfig_Defaults(t *testing.T) {
	config, err := NewAgentConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "phone", config.Namespace)
	assert.Equal(t, SinkCloudWatch, config.Sink)
	assert.Equal(t, "us-west-2", config.Region)
	assert.Equal(t, 10*time.Second, config.Timeout)
	assert.Equal(t, []string{"localhost:9092"}, config.KafkaBrokers)
	assert.Equal(t, "info", config.LogLevel)

	assert.ErrorIs(t, config.RequireDevice(), internalerrors.ErrMissingBaseURL)
}

func TestNewAgentConfig_Env(t *testing.T) {
	t.Setenv("PM_BASE_URL", "http://192.168.1.28:5000/")
	t.Setenv("PM_SECRET", "s3cr3t")
	t.Setenv("PM_METRIC_NAMESPACE", "home")
	t.Setenv("PM_SINK", "Kafka")
	t.Setenv("PM_TIMEOUT", "3s")
	t.Setenv("PM_KAFKA_BROKERS", "k1:9092, k2:9092,")

	config, err := NewAgentConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "http://192.168.1.28:5000", config.BaseURL)
	assert.Equal(t, "s3cr3t", config.Secret)
	assert.Equal(t, "home", config.Namespace)
	assert.Equal(t, SinkKafka, config.Sink)
	assert.Equal(t, 3*time.Second, config.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, config.KafkaBrokers)
	assert.NoError(t, config.RequireDevice())
}

func TestNewAgentConfig_FlagOverridesEnv(t *testing.T) {
	t.Setenv("PM_SECRET", "from-env")
	t.Setenv("PM_METRIC_NAMESPACE", "from-env")

	v := NewViper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AgentFlags(fs)
	require.NoError(t, BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--secret", "from-flag", "--namespace", "flagged", "--sink", "memory"}))

	config, err := NewAgentConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", config.Secret)
	assert.Equal(t, "flagged", config.Namespace)
	assert.Equal(t, SinkMemory, config.Sink)
	// unset flags keep the defaults
	assert.Equal(t, "us-west-2", config.Region)
}

func TestNewAgentConfig_Errors(t *testing.T) {
	t.Run("unknown sink", func(t *testing.T) {
		t.Setenv("PM_SINK", "graphite")
		_, err := NewAgentConfig(NewViper())
		assert.ErrorIs(t, err, internalerrors.ErrUnknownSink)
	})
	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("PM_SINK", "postgres")
		_, err := NewAgentConfig(NewViper())
		assert.Error(t, err)
	})
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("PM_BASE_URL", "http://host:5000")
		config, err := NewAgentConfig(NewViper())
		require.NoError(t, err)
		assert.ErrorIs(t, config.RequireDevice(), internalerrors.ErrMissingSecret)
	})
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PM_BASE_URL=http://from-file:5000\nPM_SECRET=file-secret\nPM_TEST_ONLY_KEY=value\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PM_SECRET", "env-secret")
	// registered with t.Setenv so the test environment is restored afterwards
	t.Setenv("PM_BASE_URL", "")
	os.Unsetenv("PM_BASE_URL")
	t.Setenv("PM_TEST_ONLY_KEY", "")
	os.Unsetenv("PM_TEST_ONLY_KEY")

	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "http://from-file:5000", os.Getenv("PM_BASE_URL"))
	assert.Equal(t, "env-secret", os.Getenv("PM_SECRET"))
	assert.Equal(t, "value", os.Getenv("PM_TEST_ONLY_KEY"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
	assert.NoError(t, LoadEnvFile(""))
}

func TestNewSimConfig(t *testing.T) {
	_, err := NewSimConfig(NewViper())
	assert.ErrorIs(t, err, internalerrors.ErrMissingSecret)

	t.Setenv("PM_SECRET", "s3cr3t")
	t.Setenv("PM_SIM_MAX_SKEW", "1m")
	config, err := NewSimConfig(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "localhost:5000", config.Address)
	assert.Equal(t, "100%", config.BatteryLevel)
	assert.Equal(t, time.Minute, config.MaxSkew)
}
