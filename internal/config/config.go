package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-daymatch/internal/weather"
)

const defaultConfigFile = "config.yaml"

var validate = validator.New()

type AppConfig struct {
	// Fixed point the dataset is built for.
	Latitude  float64 `yaml:"latitude" envconfig:"WEATHER_LATITUDE" validate:"min=-90,max=90"`
	Longitude float64 `yaml:"longitude" envconfig:"WEATHER_LONGITUDE" validate:"min=-180,max=180"`
	Timezone  string  `yaml:"timezone" envconfig:"WEATHER_TIMEZONE" validate:"required"`

	// History window. An empty HistoryTo means today minus HistoryLagDays.
	HistoryFrom    string `yaml:"history_from" envconfig:"HISTORY_FROM" validate:"required,datetime=2006-01-02"`
	HistoryTo      string `yaml:"history_to" envconfig:"HISTORY_TO" validate:"omitempty,datetime=2006-01-02"`
	HistoryLagDays int    `yaml:"history_lag_days" envconfig:"HISTORY_LAG_DAYS" validate:"min=0"`

	// Matching.
	TopK           int    `yaml:"top_k" envconfig:"MATCH_TOP_K" validate:"min=1"`
	PartialDays    string `yaml:"partial_days" envconfig:"MATCH_PARTIAL_DAYS" validate:"oneof=strict skip"`
	DuplicateDates string `yaml:"duplicate_dates" envconfig:"DATASET_DUPLICATES" validate:"oneof=reject replace"`
	DTWWindow      int    `yaml:"dtw_window" envconfig:"DTW_WINDOW" validate:"min=1"`

	// Open-Meteo endpoints and outbound HTTP behaviour.
	ArchiveURL  string        `yaml:"archive_url" envconfig:"OPENMETEO_ARCHIVE_URL" validate:"required,url"`
	ForecastURL string        `yaml:"forecast_url" envconfig:"OPENMETEO_FORECAST_URL" validate:"required,url"`
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT" validate:"gt=0"`
	MaxRetries  int           `yaml:"max_retries" envconfig:"HTTP_MAX_RETRIES" validate:"min=0,max=10"`

	// Chart output.
	ChartDir      string `yaml:"chart_dir" envconfig:"CHART_DIR" validate:"required"`
	ChartFormat   string `yaml:"chart_format" envconfig:"CHART_FORMAT" validate:"oneof=png svg pdf"`
	ChartDay      bool   `yaml:"chart_day" envconfig:"CHART_DAY"`
	ChartWarping  bool   `yaml:"chart_warping" envconfig:"CHART_WARPING"`
	DisableCharts bool   `yaml:"disable_charts" envconfig:"CHART_DISABLE"`

	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing overrides it.
func Default() AppConfig {
	return AppConfig{
		Latitude:       60.1905,
		Longitude:      11.9977,
		Timezone:       "GMT",
		HistoryFrom:    "2022-01-01",
		HistoryLagDays: 5,
		TopK:           2,
		PartialDays:    "strict",
		DuplicateDates: string(weather.DuplicateReject),
		DTWWindow:      24,
		ArchiveURL:     "https://archive-api.open-meteo.com/v1/archive",
		ForecastURL:    "https://api.open-meteo.com/v1/forecast",
		HTTPTimeout:    30 * time.Second,
		MaxRetries:     0,
		ChartDir:       "charts",
		ChartFormat:    "png",
		ChartWarping:   true,
		LogLevel:       "info",
	}
}

// Load resolves configuration from defaults, an optional YAML file and the
// environment (including a .env file), in increasing priority.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := Default()

	file, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit {
		file = defaultConfigFile
	}
	if err := loadFile(&cfg, file, explicit); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFile overlays the YAML file onto cfg. A missing file is only an error
// when it was asked for explicitly.
func loadFile(cfg *AppConfig, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Location returns the configured point.
func (c *AppConfig) Location() weather.Location {
	return weather.Location{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Timezone:  c.Timezone,
	}
}

// HistoryRange resolves the history window relative to today.
func (c *AppConfig) HistoryRange(today time.Time) (from, to time.Time, err error) {
	from, err = time.Parse(weather.DateLayout, c.HistoryFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid HISTORY_FROM: %w", err)
	}

	if c.HistoryTo != "" {
		to, err = time.Parse(weather.DateLayout, c.HistoryTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid HISTORY_TO: %w", err)
		}
	} else {
		day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		to = day.AddDate(0, 0, -c.HistoryLagDays)
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("history range %s..%s is empty",
			from.Format(weather.DateLayout), to.Format(weather.DateLayout))
	}
	return from, to, nil
}
