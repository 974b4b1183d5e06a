package config

import (
	"errors"
	"strings"
	"time"
)

// Config defines the ETL worker configuration.
type Config struct {
	Database struct {
		DSN string `yaml:"dsn" env:"ETL_POSTGRES_DSN"`
	} `yaml:"database"`
	Queue struct {
		URL  string `yaml:"url" env:"ETL_AMQP_URL"`
		Name string `yaml:"name" env:"ETL_AMQP_QUEUE"`
	} `yaml:"queue"`
	Redis struct {
		Addr      string        `yaml:"addr" env:"ETL_REDIS_ADDR"`
		Password  string        `yaml:"password" env:"ETL_REDIS_PASSWORD"`
		ResultTTL time.Duration `yaml:"result_ttl" env:"ETL_RESULT_TTL"`
	} `yaml:"redis"`
	Audit struct {
		URI        string `yaml:"uri" env:"ETL_MONGO_URI"`
		Database   string `yaml:"database" env:"ETL_MONGO_DATABASE"`
		Collection string `yaml:"collection" env:"ETL_MONGO_COLLECTION"`
	} `yaml:"audit"`
	Notify struct {
		BaseURL string `yaml:"base_url" env:"ETL_NOTIFY_BASE_URL"`
	} `yaml:"notify"`
	Kafka struct {
		Brokers string `yaml:"brokers" env:"ETL_KAFKA_BROKERS"`
		Topic   string `yaml:"topic" env:"ETL_KAFKA_TOPIC"`
		GroupID string `yaml:"group_id" env:"ETL_KAFKA_GROUP_ID"`
	} `yaml:"kafka"`
}

// Load configuration with defaults, file and env overrides. The database
// and queue settings are mandatory for the worker; audit, redis, notify and
// kafka are optional collaborators that stay disabled when unset.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Queue.Name = "etl.jobs"
	cfg.Redis.ResultTTL = 24 * time.Hour
	cfg.Audit.Database = "sensor_monitoring"
	cfg.Audit.Collection = "etl_logs"
	cfg.Kafka.Topic = "sensor.telemetry"
	cfg.Kafka.GroupID = "sensormon-ingest"

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Queue.URL) == "" {
		return nil, errors.New("config: queue url required")
	}
	return cfg, nil
}

// KafkaBrokers splits the comma-separated broker list.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
