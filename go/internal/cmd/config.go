package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	PublisherLocal     = "local"
	PublisherJetStream = "jetstream"
	PublisherLog       = "log"
)

type Config struct {
	Storage string `yaml:"storage"`

	Events struct {
		Publisher string `yaml:"publisher"`
		NATSURL   string `yaml:"nats_url"`
	} `yaml:"events"`

	Outbox struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		BatchSize    int32         `yaml:"batch_size"`
		MaxRetries   int           `yaml:"max_retries"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
	} `yaml:"outbox"`

	Leaderboard struct {
		PushLimit int32 `yaml:"push_limit"`
	} `yaml:"leaderboard"`
}

func defaultConfig() *Config {
	var config Config
	config.Storage = StorageMemory
	config.Events.Publisher = PublisherLocal
	config.Events.NATSURL = "nats://localhost:4222"
	config.Outbox.PollInterval = 5 * time.Second
	config.Outbox.BatchSize = 100
	config.Outbox.MaxRetries = 3
	config.Outbox.RetryDelay = time.Second
	config.Leaderboard.PushLimit = 10
	return &config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig overlays the YAML file at path on the defaults. A missing file
// leaves the defaults in place.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if url := os.Getenv("NATS_URL"); url != "" {
		config.Events.NATSURL = url
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	switch c.Events.Publisher {
	case PublisherLocal, PublisherJetStream, PublisherLog:
	default:
		return fmt.Errorf("unknown events publisher %q", c.Events.Publisher)
	}

	if c.Outbox.PollInterval <= 0 {
		return errors.New("outbox.poll_interval must be positive")
	}
	return nil
}
