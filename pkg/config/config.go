package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config holds all runtime configuration. Defaults are set per environment,
// then overridden by an optional YAML config file, then by ELIB_-prefixed
// environment variables (e.g. ELIB_SERVER_PORT=8080).
type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Environment               string        `koanf:"environment"`
	Hostname                  string        `koanf:"hostname"`
	JWTSecret                 string        `koanf:"jwt_secret"`
	KeywordCount              int           `koanf:"keyword_count"`
	MaxVocabulary             int           `koanf:"max_vocabulary"`
	MediaRoot                 string        `koanf:"media_root"`
	PDFiumWorkers             int           `koanf:"pdfium_workers"`
	RenderDPI                 int           `koanf:"render_dpi"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	StopWordsFile             string        `koanf:"stop_words_file"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "CONFIG_FILE"
	envPrefix      = "ELIB_"
)

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	environment := os.Getenv(environmentENV)
	if environment == "" {
		environment = "development"
	}

	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		Environment:               environment,
		Hostname:                  hostname,
		KeywordCount:              10,
		MaxVocabulary:             2000,
		PDFiumWorkers:             4,
		RenderDPI:                 150,
		ServerPort:                4264,
	}

	switch environment {
	case "development":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	return cfg, nil
}
