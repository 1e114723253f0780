package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	ferrors "github.com/five82/flashbang/internal/errors"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/videos/blast.mp4", "/output")

	if cfg.VideoPath != "/videos/blast.mp4" {
		t.Errorf("expected VideoPath=/videos/blast.mp4, got %s", cfg.VideoPath)
	}
	if cfg.OutputDir != "/output" {
		t.Errorf("expected OutputDir=/output, got %s", cfg.OutputDir)
	}

	// Check defaults
	if cfg.WeatherTimeout != DefaultWeatherTimeout {
		t.Errorf("expected WeatherTimeout=%v, got %v", DefaultWeatherTimeout, cfg.WeatherTimeout)
	}
	if cfg.WeatherDate.IsExplicit() || cfg.WeatherDate.Offset() != 0 {
		t.Errorf("expected default weather date of today, got %s", cfg.WeatherDate)
	}
	if cfg.KeepFiles || cfg.Plot {
		t.Error("expected keep and plot to default to false")
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := NewConfig("in.mp4", "/out")

	if got := cfg.FramesDir(); got != filepath.Join("/out", "frames") {
		t.Errorf("FramesDir() = %s", got)
	}
	if got := cfg.AudioPath(); got != filepath.Join("/out", "audio.wav") {
		t.Errorf("AudioPath() = %s", got)
	}
	if got := cfg.LogCSVPath(); got != filepath.Join("/out", "log.csv") {
		t.Errorf("LogCSVPath() = %s", got)
	}
	if got := cfg.MetricsPath(); got != filepath.Join("/out", "metrics.prom") {
		t.Errorf("MetricsPath() = %s", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErr      bool
		wantSentinel error
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:         "empty video path is invalid",
			modify:       func(c *Config) { c.VideoPath = "" },
			wantErr:      true,
			wantSentinel: ErrMissingVideo,
		},
		{
			name:         "latitude 91 is invalid",
			modify:       func(c *Config) { c.Latitude = 91 },
			wantErr:      true,
			wantSentinel: ErrInvalidLatitude,
		},
		{
			name:    "latitude -90 is valid",
			modify:  func(c *Config) { c.Latitude = -90 },
			wantErr: false,
		},
		{
			name:         "longitude -180.5 is invalid",
			modify:       func(c *Config) { c.Longitude = -180.5 },
			wantErr:      true,
			wantSentinel: ErrInvalidLongitude,
		},
		{
			name:         "empty output dir is invalid",
			modify:       func(c *Config) { c.OutputDir = "" },
			wantErr:      true,
			wantSentinel: ErrMissingOutputDir,
		},
		{
			name:         "zero timeout is invalid",
			modify:       func(c *Config) { c.WeatherTimeout = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidTimeout,
		},
		{
			name:         "negative retries are invalid",
			modify:       func(c *Config) { c.WeatherRetries = -1 },
			wantErr:      true,
			wantSentinel: ErrInvalidRetries,
		},
		{
			name:         "relative archive URL is invalid",
			modify:       func(c *Config) { c.ArchiveURL = "archive" },
			wantErr:      true,
			wantSentinel: ErrInvalidEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("in.mp4", "/output")
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestParseWeatherDate(t *testing.T) {
	tests := []struct {
		input      string
		wantOffset int
		wantDate   string
		wantErr    bool
	}{
		{input: "0", wantOffset: 0},
		{input: "3", wantOffset: 3},
		{input: " 7 ", wantOffset: 7},
		{input: "2024-01-15", wantDate: "2024-01-15"},
		{input: "03/04/2024", wantDate: "2024-04-03"},
		{input: "01.02.2024", wantDate: "2024-02-01"},
		{input: "1.2.2024", wantDate: "2024-02-01"},
		{input: "01-02-2024", wantDate: "2024-02-01"},
		{input: "9/3/2024", wantDate: "2024-03-09"},
		{input: "02/13/2024", wantDate: "2024-02-13"},
		{input: "13.02.2024", wantDate: "2024-02-13"},
		{input: "31.02.2024", wantErr: true},
		{input: "", wantErr: true},
		{input: "yesterday-ish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeatherDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeatherDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !ferrors.IsKind(err, ferrors.KindArgument) {
					t.Errorf("expected argument error, got %v", err)
				}
				return
			}
			if tt.wantDate != "" {
				if !got.IsExplicit() {
					t.Fatalf("expected explicit date for %q", tt.input)
				}
				if s := got.String(); s != tt.wantDate {
					t.Errorf("date = %s, want %s", s, tt.wantDate)
				}
				return
			}
			if got.IsExplicit() || got.Offset() != tt.wantOffset {
				t.Errorf("offset = %d (explicit %v), want %d", got.Offset(), got.IsExplicit(), tt.wantOffset)
			}
		})
	}
}

func TestDateSpecResolve(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)

	if got := FormatDate(OffsetDays(0).Resolve(now)); got != "2024-03-10" {
		t.Errorf("offset 0 resolved to %s", got)
	}
	if got := FormatDate(OffsetDays(10).Resolve(now)); got != "2024-02-29" {
		t.Errorf("offset 10 resolved to %s", got)
	}

	explicit := OnDate(time.Date(2023, time.July, 4, 15, 0, 0, 0, time.UTC))
	if got := FormatDate(explicit.Resolve(now)); got != "2023-07-04" {
		t.Errorf("explicit date resolved to %s", got)
	}

	if got := OffsetDays(2).String(); got != "2 day(s) ago" {
		t.Errorf("String() = %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FLASHBANG_VIDEO", "/data/clip.mov")
	t.Setenv("FLASHBANG_LAT", "50.4501")
	t.Setenv("FLASHBANG_LON", "30.5234")
	t.Setenv("FLASHBANG_DATE_OFFSET_DAYS", "2")
	t.Setenv("FLASHBANG_WEATHER_TIMEOUT", "3s")

	cfg, err := LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults() error = %v", err)
	}

	if cfg.VideoPath != "/data/clip.mov" {
		t.Errorf("VideoPath = %s", cfg.VideoPath)
	}
	if cfg.Latitude != 50.4501 || cfg.Longitude != 30.5234 {
		t.Errorf("location = %v,%v", cfg.Latitude, cfg.Longitude)
	}
	if cfg.WeatherDate.Offset() != 2 {
		t.Errorf("offset = %d, want 2", cfg.WeatherDate.Offset())
	}
	if cfg.WeatherTimeout != 3*time.Second {
		t.Errorf("WeatherTimeout = %v", cfg.WeatherTimeout)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %s, want %s", cfg.OutputDir, DefaultOutputDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded defaults should validate: %v", err)
	}
}

func TestLoadDefaultsRejectsBadNumber(t *testing.T) {
	t.Setenv("FLASHBANG_LAT", "north")

	_, err := LoadDefaults()
	if !ferrors.IsKind(err, ferrors.KindConfig) {
		t.Errorf("expected config error for non-numeric latitude, got %v", err)
	}
}
