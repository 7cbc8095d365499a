package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Datasets.
	DataDir           string
	LevelsFile        string
	FlowsFile         string
	PredictionsFile   string
	CatalogFile       string
	DefaultWindowDays int
	WatchData         bool
	WatchDebounce     time.Duration
	FigureCacheSize   int

	// Live measurement ingest.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaGroupID       string
	LiveOverlayLimit   int
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	debounce, err := time.ParseDuration(sharedcfg.EnvOrDefault("WATCH_DEBOUNCE", "500ms"))
	if err != nil || debounce <= 0 {
		return nil, errors.New("invalid WATCH_DEBOUNCE")
	}

	windowDays, err := strconv.Atoi(sharedcfg.EnvOrDefault("DEFAULT_WINDOW_DAYS", "30"))
	if err != nil || windowDays < 1 || windowDays > 365 {
		return nil, errors.New("DEFAULT_WINDOW_DAYS must be between 1 and 365")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8050"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:           sharedcfg.EnvOrDefault("DATA_DIR", "."),
		LevelsFile:        sharedcfg.EnvOrDefault("LEVELS_FILE", "n_galerie.csv"),
		FlowsFile:         sharedcfg.EnvOrDefault("FLOWS_FILE", "q_galerie.csv"),
		PredictionsFile:   sharedcfg.EnvOrDefault("PREDICTIONS_FILE", "la_results.csv"),
		CatalogFile:       os.Getenv("CATALOG_FILE"),
		DefaultWindowDays: windowDays,
		WatchData:         sharedcfg.EnvOrDefault("WATCH_DATA", "true") == "true",
		WatchDebounce:     debounce,
		FigureCacheSize:   positiveIntOrDefault("FIGURE_CACHE_SIZE", 256),

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "gallery-measurements"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "vulnerapp"),
		LiveOverlayLimit:   positiveIntOrDefault("LIVE_OVERLAY_LIMIT", 10000),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.LevelsFile == "" || cfg.FlowsFile == "" || cfg.PredictionsFile == "" {
		return nil, errors.New("LEVELS_FILE, FLOWS_FILE and PREDICTIONS_FILE are required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// LevelsPath returns the full path of the gallery level CSV.
func (c *Config) LevelsPath() string { return filepath.Join(c.DataDir, c.LevelsFile) }

// FlowsPath returns the full path of the gallery flow CSV.
func (c *Config) FlowsPath() string { return filepath.Join(c.DataDir, c.FlowsFile) }

// PredictionsPath returns the full path of the prediction CSV.
func (c *Config) PredictionsPath() string { return filepath.Join(c.DataDir, c.PredictionsFile) }

func positiveIntOrDefault(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
