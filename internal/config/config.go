// Package config loads agent and simulator settings from command-line flags,
// PM_* environment variables and an optional .env file.
//
// Precedence, highest first: explicitly set flag, environment variable,
// .env file, default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PM"

const (
	KeyBaseURL       = "base_url"
	KeySecret        = "secret"
	KeyNamespace     = "metric_namespace"
	KeySink          = "sink"
	KeyRegion        = "region"
	KeyTimeout       = "timeout"
	KeyDatabaseDSN   = "database_dsn"
	KeyDynamoDBTable = "dynamodb_table"
	KeyKafkaBrokers  = "kafka_brokers"
	KeyKafkaTopic    = "kafka_topic"
	KeyMQTTBroker    = "mqtt_broker"
	KeyMQTTTopic     = "mqtt_topic"
	KeyFilePath      = "file_path"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
)

// Sink names accepted in the sink setting.
const (
	SinkCloudWatch = "cloudwatch"
	SinkPostgres   = "postgres"
	SinkDynamoDB   = "dynamodb"
	SinkKafka      = "kafka"
	SinkMQTT       = "mqtt"
	SinkFile       = "file"
	SinkMemory     = "memory"
)

var knownSinks = map[string]bool{
	SinkCloudWatch: true,
	SinkPostgres:   true,
	SinkDynamoDB:   true,
	SinkKafka:      true,
	SinkMQTT:       true,
	SinkFile:       true,
	SinkMemory:     true,
}

// AgentConfig holds everything the reporting agent needs.
type AgentConfig struct {
	BaseURL   string
	Secret    string
	Namespace string
	Sink      string
	Region    string
	Timeout   time.Duration

	DatabaseDSN   string
	DynamoDBTable string
	KafkaBrokers  []string
	KafkaTopic    string
	MQTTBroker    string
	MQTTTopic     string
	FilePath      string

	LogLevel string
	LogFile  string
}

// NewViper returns a viper instance reading PM_* variables with agent defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyNamespace, "phone")
	v.SetDefault(KeySink, SinkCloudWatch)
	v.SetDefault(KeyRegion, "us-west-2")
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyDynamoDBTable, "phone_metrics")
	v.SetDefault(KeyKafkaBrokers, "localhost:9092")
	v.SetDefault(KeyKafkaTopic, "phone-metrics")
	v.SetDefault(KeyMQTTBroker, "tcp://localhost:1883")
	v.SetDefault(KeyMQTTTopic, "phonemetrics")
	v.SetDefault(KeyFilePath, "./metrics.jsonl")
	v.SetDefault(KeyLogLevel, "info")

	setSimDefaults(v)
	return v
}

// AgentFlags defines the agent flags on fs.
func AgentFlags(fs *pflag.FlagSet) {
	fs.String("base-url", "", "Base URL of the phone API")
	fs.String("secret", "", "Shared secret used to sign requests")
	fs.String("namespace", "", "Metrics namespace")
	fs.String("sink", "", "Metrics sink: cloudwatch, postgres, dynamodb, kafka, mqtt, file or memory")
	fs.String("region", "", "AWS region")
	fs.Duration("timeout", 0, "HTTP request timeout")
	fs.String("database-dsn", "", "PostgreSQL DSN for the postgres sink")
	fs.String("dynamodb-table", "", "Table for the dynamodb sink")
	fs.String("kafka-brokers", "", "Comma separated brokers for the kafka sink")
	fs.String("kafka-topic", "", "Topic for the kafka sink")
	fs.String("mqtt-broker", "", "Broker URL for the mqtt sink")
	fs.String("mqtt-topic", "", "Topic prefix for the mqtt sink")
	fs.String("file-path", "", "Output file for the file sink")
	fs.String("log-level", "", "Log level: debug, info, warn or error")
	fs.String("log-file", "", "Write logs to this file instead of stderr")
}

// BindFlags binds every flag defined on fs to the key of the same name with
// dashes turned into underscores. The namespace flag maps to metric_namespace.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if f.Name == "namespace" {
			key = KeyNamespace
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

// LoadEnvFile copies the variables of a dotenv file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading env file %s: %w", path, err)
	}
	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("error setting %s: %w", name, err)
		}
	}
	return nil
}

// NewAgentConfig reads the agent settings from v.
func NewAgentConfig(v *viper.Viper) (*AgentConfig, error) {
	config := &AgentConfig{
		BaseURL:       strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		Secret:        v.GetString(KeySecret),
		Namespace:     v.GetString(KeyNamespace),
		Sink:          strings.ToLower(v.GetString(KeySink)),
		Region:        v.GetString(KeyRegion),
		Timeout:       v.GetDuration(KeyTimeout),
		DatabaseDSN:   v.GetString(KeyDatabaseDSN),
		DynamoDBTable: v.GetString(KeyDynamoDBTable),
		KafkaBrokers:  splitList(v.GetString(KeyKafkaBrokers)),
		KafkaTopic:    v.GetString(KeyKafkaTopic),
		MQTTBroker:    v.GetString(KeyMQTTBroker),
		MQTTTopic:     v.GetString(KeyMQTTTopic),
		FilePath:      v.GetString(KeyFilePath),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFile:       v.GetString(KeyLogFile),
	}
	if !knownSinks[config.Sink] {
		return nil, fmt.Errorf("%w: %q", internalerrors.ErrUnknownSink, config.Sink)
	}
	if config.Sink == SinkPostgres && config.DatabaseDSN == "" {
		return nil, fmt.Errorf("database dsn is required for the %s sink", SinkPostgres)
	}
	return config, nil
}

// RequireDevice checks the settings needed to talk to the phone.
func (c *AgentConfig) RequireDevice() error {
	if c.BaseURL == "" {
		return internalerrors.ErrMissingBaseURL
	}
	return c.RequireSecret()
}

// RequireSecret checks that a shared secret is configured.
func (c *AgentConfig) RequireSecret() error {
	if c.Secret == "" {
		return internalerrors.ErrMissingSecret
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
