// Package config provides configuration types and defaults for flashbang.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Default constants
const (
	// DefaultVideoPath is the input video used when --video is not given.
	DefaultVideoPath = "video.mp4"

	// DefaultOutputDir holds the CSV log, run logs and intermediate files.
	DefaultOutputDir = "output"

	// DefaultWeatherTimeout bounds a single weather API request.
	DefaultWeatherTimeout = 10 * time.Second

	// DefaultWeatherRetries is the number of retries on 429/5xx responses.
	DefaultWeatherRetries = 3

	// DefaultForecastURL is the Open-Meteo endpoint used for today's date.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultArchiveURL is the Open-Meteo endpoint used for past dates.
	DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

	// DefaultMinFreeDiskBytes is the free space below which a warning is emitted
	// before extracting frames.
	DefaultMinFreeDiskBytes uint64 = 512 * 1024 * 1024

	// FramesDirName is the directory (under OutputDir) receiving extracted frames.
	FramesDirName = "frames"

	// AudioFileName is the extracted audio file (under OutputDir).
	AudioFileName = "audio.wav"

	// LogCSVName is the append-only results log.
	LogCSVName = "log.csv"

	// MetricsFileName is the Prometheus textfile written with --metrics.
	MetricsFileName = "metrics.prom"
)

// Config holds all configuration for a single estimation run.
type Config struct {
	// Input and location
	VideoPath string  `validate:"required"`
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`

	// Date used for the temperature lookup
	WeatherDate DateSpec

	// Output
	OutputDir string `validate:"required"`
	KeepFiles bool
	Plot      bool
	Metrics   bool

	// Logging and terminal output
	Verbose bool
	NoLog   bool
	JSON    bool

	// Weather client
	WeatherTimeout time.Duration `validate:"gt=0"`
	WeatherRetries int           `validate:"gte=0,lte=10"`
	ForecastURL    string        `validate:"required,url"`
	ArchiveURL     string        `validate:"required,url"`

	MinFreeDiskBytes uint64
}

// NewConfig creates a new Config with default values.
func NewConfig(videoPath, outputDir string) *Config {
	return &Config{
		VideoPath:        videoPath,
		OutputDir:        outputDir,
		WeatherDate:      OffsetDays(0),
		WeatherTimeout:   DefaultWeatherTimeout,
		WeatherRetries:   DefaultWeatherRetries,
		ForecastURL:      DefaultForecastURL,
		ArchiveURL:       DefaultArchiveURL,
		MinFreeDiskBytes: DefaultMinFreeDiskBytes,
	}
}

var validate = validator.New()

// fieldSentinels maps struct fields to the sentinel returned when they fail validation.
var fieldSentinels = map[string]error{
	"VideoPath":      ErrMissingVideo,
	"Latitude":       ErrInvalidLatitude,
	"Longitude":      ErrInvalidLongitude,
	"OutputDir":      ErrMissingOutputDir,
	"WeatherTimeout": ErrInvalidTimeout,
	"WeatherRetries": ErrInvalidRetries,
	"ForecastURL":    ErrInvalidEndpoint,
	"ArchiveURL":     ErrInvalidEndpoint,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	sentinel, ok := fieldSentinels[fe.Field()]
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %s failed %q (got %v)", sentinel, fe.Field(), fe.Tag(), fe.Value())
}

// FramesDir returns the directory receiving extracted frames.
func (c *Config) FramesDir() string {
	return filepath.Join(c.OutputDir, FramesDirName)
}

// AudioPath returns the path of the extracted audio file.
func (c *Config) AudioPath() string {
	return filepath.Join(c.OutputDir, AudioFileName)
}

// LogCSVPath returns the path of the append-only results log.
func (c *Config) LogCSVPath() string {
	return filepath.Join(c.OutputDir, LogCSVName)
}

// MetricsPath returns the path of the Prometheus textfile.
func (c *Config) MetricsPath() string {
	return filepath.Join(c.OutputDir, MetricsFileName)
}
