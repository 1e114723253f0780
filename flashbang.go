// Package flashbang estimates the distance to an explosion filmed on video.
//
// The estimate is the delay between the brightest step change in the
// picture and the loudest moment in the soundtrack, multiplied by the speed
// of sound at the day's temperature (looked up from Open-Meteo).
//
// Basic usage:
//
//	est, err := flashbang.New(
//	    flashbang.WithLocation(50.4501, 30.5234),
//	    flashbang.WithDaysAgo(1),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := est.Estimate(ctx, "blast.mp4", "output/", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Distance: %.0f m\n", result.DistanceMeters)
package flashbang

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/five82/flashbang/internal/config"
	"github.com/five82/flashbang/internal/ffmpeg"
	"github.com/five82/flashbang/internal/ffprobe"
	"github.com/five82/flashbang/internal/flash"
	"github.com/five82/flashbang/internal/pipeline"
	"github.com/five82/flashbang/internal/plot"
	"github.com/five82/flashbang/internal/reporter"
	"github.com/five82/flashbang/internal/video"
	"github.com/five82/flashbang/internal/weather"
)

// Version is the library and CLI version.
const Version = "0.1.0"

// Reporter receives progress and result events.
type Reporter = reporter.Reporter

// DateSpec selects the day used for the temperature lookup.
type DateSpec = config.DateSpec

// ParseWeatherDate parses a day offset ("3") or a day-first date
// ("09/03/2024", "2024-03-09").
func ParseWeatherDate(s string) (DateSpec, error) {
	return config.ParseWeatherDate(s)
}

// Estimator runs distance estimates with a fixed configuration.
type Estimator struct {
	config    *config.Config
	runID     string
	userAgent string
	clock     clockwork.Clock
}

// Result is the outcome of one estimate.
type Result struct {
	RunID           string
	FlashFrame      int
	FlashTime       float64
	SoundTime       float64
	Delay           float64
	TemperatureC    float64
	SpeedOfSound    float64
	DistanceMeters  float64
	WeatherDate     string
	WeatherFallback bool
	LogPath         string
	Plots           []string
	MetricsPath     string
	Duration        time.Duration
}

// Kilometers returns the distance in kilometers.
func (r *Result) Kilometers() float64 {
	return r.DistanceMeters / 1000
}

// Option configures the estimator.
type Option func(*Estimator)

// New creates an Estimator with the given options.
func New(opts ...Option) (*Estimator, error) {
	e := &Estimator{
		config:    config.NewConfig(config.DefaultVideoPath, config.DefaultOutputDir),
		userAgent: "flashbang/" + Version,
		clock:     clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	return e, nil
}

// WithLocation sets where the video was recorded.
func WithLocation(lat, lon float64) Option {
	return func(e *Estimator) {
		e.config.Latitude = lat
		e.config.Longitude = lon
	}
}

// WithDaysAgo uses the temperature from n days before today (UTC).
func WithDaysAgo(n int) Option {
	return func(e *Estimator) {
		e.config.WeatherDate = config.OffsetDays(n)
	}
}

// WithDate uses the temperature on a calendar date.
func WithDate(t time.Time) Option {
	return func(e *Estimator) {
		e.config.WeatherDate = config.OnDate(t)
	}
}

// WithWeatherDate uses a DateSpec from ParseWeatherDate.
func WithWeatherDate(d DateSpec) Option {
	return func(e *Estimator) {
		e.config.WeatherDate = d
	}
}

// WithKeepFiles keeps extracted frames and audio after the run.
func WithKeepFiles() Option {
	return func(e *Estimator) {
		e.config.KeepFiles = true
	}
}

// WithPlots renders the brightness, spectrogram and combined plots.
func WithPlots() Option {
	return func(e *Estimator) {
		e.config.Plot = true
	}
}

// WithMetrics writes a Prometheus textfile into the output directory.
func WithMetrics() Option {
	return func(e *Estimator) {
		e.config.Metrics = true
	}
}

// WithWeatherTimeout bounds each weather API request.
func WithWeatherTimeout(d time.Duration) Option {
	return func(e *Estimator) {
		e.config.WeatherTimeout = d
	}
}

// WithWeatherRetries sets how often a 429/5xx response is retried.
func WithWeatherRetries(n int) Option {
	return func(e *Estimator) {
		e.config.WeatherRetries = n
	}
}

// WithWeatherEndpoints points the client at other forecast and archive URLs.
func WithWeatherEndpoints(forecastURL, archiveURL string) Option {
	return func(e *Estimator) {
		e.config.ForecastURL = forecastURL
		e.config.ArchiveURL = archiveURL
	}
}

// WithMinFreeDisk warns when the output directory has less free space.
func WithMinFreeDisk(bytes uint64) Option {
	return func(e *Estimator) {
		e.config.MinFreeDiskBytes = bytes
	}
}

// WithRunID tags logs, JSON events and metrics with id instead of a random UUID.
func WithRunID(id string) Option {
	return func(e *Estimator) {
		e.runID = id
	}
}

// WithClock replaces the wall clock used for timestamps and "today".
func WithClock(c clockwork.Clock) Option {
	return func(e *Estimator) {
		e.clock = c
	}
}

// Estimate runs the full pipeline for videoPath, writing the CSV log and
// any plots into outputDir.
func (e *Estimator) Estimate(ctx context.Context, videoPath, outputDir string, rep Reporter) (*Result, error) {
	cfg := *e.config
	cfg.VideoPath = videoPath
	cfg.OutputDir = outputDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if rep == nil {
		rep = reporter.NullReporter{}
	}

	runID := e.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	res, err := pipeline.Run(ctx, &cfg, e.deps(&cfg), rep, runID)
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:           res.RunID,
		FlashFrame:      res.Flash.Frame,
		FlashTime:       res.Flash.Time,
		SoundTime:       res.Sound.Time,
		Delay:           res.Estimate.Delay,
		TemperatureC:    res.Estimate.TemperatureC,
		SpeedOfSound:    res.Estimate.SpeedOfSound,
		DistanceMeters:  res.Estimate.Meters,
		WeatherDate:     res.Weather.Date,
		WeatherFallback: res.Weather.Fallback,
		LogPath:         res.LogPath,
		Plots:           res.Plots,
		MetricsPath:     res.MetricsPath,
		Duration:        res.Duration,
	}, nil
}

// deps wires the production collaborators.
func (e *Estimator) deps(cfg *config.Config) pipeline.Deps {
	return pipeline.Deps{
		Prober: pipeline.ProberFunc(ffprobe.Probe),
		Frames: frameExtractor{},
		Audio:  pipeline.AudioExtractorFunc(ffmpeg.ExtractAudio),
		Weather: weather.NewClient(
			cfg.ForecastURL,
			cfg.ArchiveURL,
			cfg.WeatherTimeout,
			cfg.WeatherRetries,
			e.userAgent,
			weather.WithClock(e.clock),
		),
		Plot:  plot.WriteAll,
		Clock: e.clock,
	}
}

// frameExtractor decodes frames with OpenCV.
type frameExtractor struct{}

func (frameExtractor) Extract(ctx context.Context, videoPath, framesDir string, progress func(done, total int)) (flash.FrameSequence, error) {
	seq, err := video.Extract(ctx, videoPath, framesDir, progress)
	if err != nil {
		return nil, err
	}
	return seq, nil
}
