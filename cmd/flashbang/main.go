// Package main provides the CLI entry point for flashbang.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/five82/flashbang"
	"github.com/five82/flashbang/internal/config"
	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/logging"
	"github.com/five82/flashbang/internal/reporter"
	"github.com/five82/flashbang/internal/util"
)

const appName = "flashbang"

func main() {
	defaults, err := config.LoadDefaults()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCommand(defaults, runEstimate).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// estimateArgs holds the parsed command-line arguments.
type estimateArgs struct {
	video          string
	lat            float64
	lon            float64
	temp           string
	keep           bool
	plot           bool
	outDir         string
	verbose        bool
	json           bool
	noLog          bool
	metrics        bool
	weatherTimeout time.Duration
}

// runFunc executes a validated run; tests substitute it.
type runFunc func(cfg *config.Config) error

func newRootCommand(defaults *config.Config, run runFunc) *cobra.Command {
	var ea estimateArgs

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Estimate the distance to an explosion from a video",
		Long: `flashbang measures the delay between the flash and the bang in a video
and converts it to a distance using the speed of sound at the day's
temperature. Each run appends a row to <outdir>/log.csv.`,
		Version:       flashbang.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(defaults, ea)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&ea.video, "video", defaults.VideoPath, "Path to the input video")
	f.Float64Var(&ea.lat, "lat", defaults.Latitude, "Latitude of the recording location")
	f.Float64Var(&ea.lon, "lon", defaults.Longitude, "Longitude of the recording location")
	f.StringVar(&ea.temp, "temp", defaultTemp(defaults), "Weather date: days in the past (int) or a day-first date")
	f.BoolVar(&ea.keep, "keep", false, "Keep extracted frames and audio")
	f.BoolVar(&ea.plot, "plot", false, "Write brightness, spectrogram and combined plots")
	f.StringVar(&ea.outDir, "outdir", defaults.OutputDir, "Directory for log.csv, plots and intermediate files")
	f.BoolVarP(&ea.verbose, "verbose", "v", false, "Enable verbose output")
	f.BoolVar(&ea.json, "json", false, "Emit NDJSON events on stdout instead of text")
	f.BoolVar(&ea.noLog, "no-log", false, "Disable the per-run log file")
	f.BoolVar(&ea.metrics, "metrics", false, "Write a Prometheus textfile to <outdir>/metrics.prom")
	f.DurationVar(&ea.weatherTimeout, "weather-timeout", defaults.WeatherTimeout, "Timeout for each weather API request")

	cmd.SetVersionTemplate(fmt.Sprintf("%s version {{.Version}}\n", appName))

	return cmd
}

func defaultTemp(defaults *config.Config) string {
	if defaults.WeatherDate.IsExplicit() {
		return defaults.WeatherDate.String()
	}
	return fmt.Sprintf("%d", defaults.WeatherDate.Offset())
}

// buildConfig applies the flags on top of the environment defaults.
func buildConfig(defaults *config.Config, ea estimateArgs) (*config.Config, error) {
	date, err := config.ParseWeatherDate(ea.temp)
	if err != nil {
		return nil, err
	}

	videoPath, err := filepath.Abs(ea.video)
	if err != nil {
		return nil, ferrors.NewArgumentError(fmt.Sprintf("invalid video path: %v", err))
	}
	outDir, err := filepath.Abs(ea.outDir)
	if err != nil {
		return nil, ferrors.NewArgumentError(fmt.Sprintf("invalid output path: %v", err))
	}

	cfg := *defaults
	cfg.VideoPath = videoPath
	cfg.OutputDir = outDir
	cfg.Latitude = ea.lat
	cfg.Longitude = ea.lon
	cfg.WeatherDate = date
	cfg.KeepFiles = ea.keep
	cfg.Plot = ea.plot
	cfg.Verbose = ea.verbose
	cfg.JSON = ea.json
	cfg.NoLog = ea.noLog
	cfg.Metrics = ea.metrics
	cfg.WeatherTimeout = ea.weatherTimeout

	if err := cfg.Validate(); err != nil {
		return nil, ferrors.NewArgumentError(fmt.Sprintf("invalid configuration: %v", err))
	}
	if !util.FileExists(cfg.VideoPath) {
		return nil, ferrors.NewInputError(fmt.Sprintf("video file not found: %s", cfg.VideoPath), nil)
	}

	return &cfg, nil
}

// newReporter builds the console reporter. When a run log is open, every
// event is also written to it as NDJSON.
func newReporter(cfg *config.Config, runID string, logFile io.Writer) reporter.Reporter {
	var console reporter.Reporter
	if cfg.JSON {
		console = reporter.NewJSONReporter(runID)
	} else {
		console = reporter.NewTerminalReporter(cfg.Verbose)
	}
	if logFile == nil {
		return console
	}
	return reporter.NewCompositeReporter(console, reporter.NewJSONReporterWithWriter(logFile, runID))
}

func runEstimate(cfg *config.Config) error {
	runID := uuid.NewString()

	if err := util.EnsureDirectory(cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger, err := logging.Setup(cfg.OutputDir, cfg.Verbose, cfg.NoLog, runID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if logger != nil {
		defer func() { _ = logger.Close() }()
	}

	logging.Info("configuration",
		"video", cfg.VideoPath,
		"output_dir", cfg.OutputDir,
		"lat", cfg.Latitude,
		"lon", cfg.Longitude,
		"weather_date", cfg.WeatherDate.String(),
		"keep", cfg.KeepFiles,
		"plot", cfg.Plot,
		"metrics", cfg.Metrics,
		"weather_timeout", cfg.WeatherTimeout)

	var logFile io.Writer
	if logger != nil {
		logFile = logger.Writer()
	}
	rep := newReporter(cfg, runID, logFile)
	if logger != nil {
		rep.Verbose(fmt.Sprintf("Log file: %s", logger.FilePath()))
	}

	opts := []flashbang.Option{
		flashbang.WithLocation(cfg.Latitude, cfg.Longitude),
		flashbang.WithWeatherDate(cfg.WeatherDate),
		flashbang.WithWeatherTimeout(cfg.WeatherTimeout),
		flashbang.WithWeatherRetries(cfg.WeatherRetries),
		flashbang.WithWeatherEndpoints(cfg.ForecastURL, cfg.ArchiveURL),
		flashbang.WithMinFreeDisk(cfg.MinFreeDiskBytes),
		flashbang.WithRunID(runID),
	}
	if cfg.KeepFiles {
		opts = append(opts, flashbang.WithKeepFiles())
	}
	if cfg.Plot {
		opts = append(opts, flashbang.WithPlots())
	}
	if cfg.Metrics {
		opts = append(opts, flashbang.WithMetrics())
	}

	est, err := flashbang.New(opts...)
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logging.Warn("interrupt received, cancelling run")
			cancel()
		case <-ctx.Done():
		}
	}()

	res, err := est.Estimate(ctx, cfg.VideoPath, cfg.OutputDir, rep)
	if err != nil {
		return err
	}

	logging.Info("run complete",
		"distance_m", res.DistanceMeters,
		"delay", res.Delay,
		"temperature_c", res.TemperatureC,
		"duration", res.Duration)
	return nil
}
