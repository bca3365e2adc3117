package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Validate ValidateConfig `yaml:"validate"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures the optional new-entry publisher. An empty URL
// disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ValidateConfig drives the bulk feed-validation loop. A zero Interval
// disables the loop; on-demand validation is unaffected.
type ValidateConfig struct {
	Interval       time.Duration `yaml:"interval"`
	Timeout        time.Duration `yaml:"timeout"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout"`
	Pause          time.Duration `yaml:"pause"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "feed_poller"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "entries"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "feed_entries"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.HTTP.Retry.MaxAttempts == 0 {
		c.HTTP.Retry.MaxAttempts = 3
	}
	if c.HTTP.Retry.Backoff == 0 {
		c.HTTP.Retry.Backoff = 1 * time.Second
	}
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = 10 * time.Minute
	}
	if c.Validate.Timeout == 0 {
		c.Validate.Timeout = 30 * time.Second
	}
	if c.Validate.ResolveTimeout == 0 {
		c.Validate.ResolveTimeout = 15 * time.Second
	}
	if c.Validate.Pause == 0 {
		c.Validate.Pause = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
