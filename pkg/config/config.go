package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ShopIntent/internal/domain/models"
	"ShopIntent/internal/ml"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		AuditTopic   string        `yaml:"audit_topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Cache struct {
		ScoresTTL time.Duration `yaml:"scores_ttl"`
	} `yaml:"cache"`
	Dataset struct {
		SourceURL    string        `yaml:"source_url"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		FetchRetries int           `yaml:"fetch_retries"`
		SourceTable  string        `yaml:"source_table"`
		Table        string        `yaml:"table"`
		ScoresTable  string        `yaml:"scores_table"`
		Seed         int64         `yaml:"seed"`
	} `yaml:"dataset"`
	Model struct {
		Name     string               `yaml:"name"`
		Features models.FeatureSchema `yaml:"features"`
		Forest   ml.ForestParams      `yaml:"forest"`
	} `yaml:"model"`
	Training struct {
		CVSplits     int     `yaml:"cv_splits"`
		TestFraction float64 `yaml:"test_fraction"`
		Seed         int64   `yaml:"seed"`
		PeriodMonths int     `yaml:"period_months"`
		Search       struct {
			Enabled bool  `yaml:"enabled"`
			Trials  int   `yaml:"trials"`
			Seed    int64 `yaml:"seed"`
		} `yaml:"search"`
	} `yaml:"training"`
	Scheduler struct {
		Enabled        bool   `yaml:"enabled"`
		PredictionCron string `yaml:"prediction_cron"`
		TrainingCron   string `yaml:"training_cron"`
		ComparisonCron string `yaml:"comparison_cron"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		c.Model.Name = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name is required")
	}
	if err := c.Model.Features.Validate(); err != nil {
		return fmt.Errorf("model.features: %w", err)
	}
	if c.Training.CVSplits < 2 {
		return fmt.Errorf("training.cv_splits must be >= 2, got %d", c.Training.CVSplits)
	}
	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("training.test_fraction must be in (0,1), got %v", c.Training.TestFraction)
	}
	if c.Training.PeriodMonths <= 0 {
		return fmt.Errorf("training.period_months must be positive, got %d", c.Training.PeriodMonths)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
