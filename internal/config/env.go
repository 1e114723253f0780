package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// envPrefix namespaces the environment variables read by LoadDefaults,
// e.g. FLASHBANG_LAT.
const envPrefix = "flashbang"

// envDefaults mirrors the subset of Config that can be preset from the environment.
type envDefaults struct {
	Video          string        `envconfig:"VIDEO" default:"video.mp4"`
	Lat            float64       `envconfig:"LAT" default:"0"`
	Lon            float64       `envconfig:"LON" default:"0"`
	DateOffsetDays int           `envconfig:"DATE_OFFSET_DAYS" default:"0"`
	OutDir         string        `envconfig:"OUTDIR" default:"output"`
	WeatherTimeout time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
	WeatherRetries int           `envconfig:"WEATHER_RETRIES" default:"3"`
	ForecastURL    string        `envconfig:"FORECAST_URL" default:"https://api.open-meteo.com/v1/forecast"`
	ArchiveURL     string        `envconfig:"ARCHIVE_URL" default:"https://archive-api.open-meteo.com/v1/archive"`
}

// LoadDefaults builds a Config from FLASHBANG_* environment variables, after
// loading a .env file from the working directory if one exists. Command-line
// flags are applied on top by the caller.
func LoadDefaults() (*Config, error) {
	// Missing .env is fine; existing variables are never overridden.
	_ = godotenv.Load()

	var env envDefaults
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, ferrors.NewConfigError(fmt.Sprintf("failed to process environment configuration: %v", err))
	}

	cfg := NewConfig(env.Video, env.OutDir)
	cfg.Latitude = env.Lat
	cfg.Longitude = env.Lon
	cfg.WeatherDate = OffsetDays(env.DateOffsetDays)
	cfg.WeatherTimeout = env.WeatherTimeout
	cfg.WeatherRetries = env.WeatherRetries
	cfg.ForecastURL = env.ForecastURL
	cfg.ArchiveURL = env.ArchiveURL
	return cfg, nil
}
