// Package pipeline runs a single flash-to-bang estimation from video to CSV row.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/five82/flashbang/internal/audio"
	"github.com/five82/flashbang/internal/config"
	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/estimate"
	"github.com/five82/flashbang/internal/ffmpeg"
	"github.com/five82/flashbang/internal/ffprobe"
	"github.com/five82/flashbang/internal/flash"
	"github.com/five82/flashbang/internal/logging"
	"github.com/five82/flashbang/internal/observability"
	"github.com/five82/flashbang/internal/plot"
	"github.com/five82/flashbang/internal/reporter"
	"github.com/five82/flashbang/internal/runlog"
	"github.com/five82/flashbang/internal/util"
	"github.com/five82/flashbang/internal/weather"
)

// Stage names used for progress, metrics and log lines.
const (
	StageProbe   = "probe"
	StageFrames  = "frames"
	StageFlash   = "flash"
	StageAudio   = "audio"
	StageSound   = "sound"
	StageWeather = "weather"
	StagePlots   = "plots"
	StageLog     = "log"
	StageCleanup = "cleanup"
)

// Disclaimer is printed after every successful estimate.
const Disclaimer = "This is a rough estimate. Real-world results typically vary by ±50-200 m " +
	"depending on wind, humidity, terrain and recording latency."

// Prober reads container and stream metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffprobe.MediaInfo, error)
}

// FrameExtractor decodes a video into an ordered frame sequence on disk.
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath, framesDir string, progress func(done, total int)) (flash.FrameSequence, error)
}

// AudioExtractor demuxes the audio track to a WAV file.
type AudioExtractor interface {
	Extract(ctx context.Context, params *ffmpeg.ExtractParams, callback ffmpeg.ProgressCallback) error
}

// TemperatureSource resolves the ambient temperature for a place and day.
type TemperatureSource interface {
	Lookup(ctx context.Context, lat, lon float64, date config.DateSpec) (weather.Reading, error)
}

// PlotFunc renders the diagnostic plots into outDir.
type PlotFunc func(outDir string, d plot.Data) ([]string, error)

// Deps are the pipeline's collaborators.
type Deps struct {
	Prober  Prober
	Frames  FrameExtractor
	Audio   AudioExtractor
	Weather TemperatureSource
	Plot    PlotFunc
	Clock   clockwork.Clock
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, path string) (*ffprobe.MediaInfo, error)

func (f ProberFunc) Probe(ctx context.Context, path string) (*ffprobe.MediaInfo, error) {
	return f(ctx, path)
}

// AudioExtractorFunc adapts a function to AudioExtractor.
type AudioExtractorFunc func(ctx context.Context, params *ffmpeg.ExtractParams, callback ffmpeg.ProgressCallback) error

func (f AudioExtractorFunc) Extract(ctx context.Context, params *ffmpeg.ExtractParams, callback ffmpeg.ProgressCallback) error {
	return f(ctx, params, callback)
}

// Result is everything a successful run produced.
type Result struct {
	RunID       string
	Media       *ffprobe.MediaInfo
	Flash       flash.Event
	Brightness  []float64
	Sound       audio.Event
	Weather     weather.Reading
	Estimate    estimate.Estimate
	Record      runlog.Record
	LogPath     string
	Plots       []string
	MetricsPath string
	Cleanup     runlog.CleanupResult
	Duration    time.Duration
}

// Run executes the stages in order: probe, frame extraction, flash
// detection, audio extraction, sound peak detection, weather lookup,
// estimate, then plots, CSV row, metrics and cleanup. Any stage failure is
// reported and returned; nothing after it runs.
func Run(ctx context.Context, cfg *config.Config, deps Deps, rep reporter.Reporter, runID string) (*Result, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Plot == nil {
		deps.Plot = plot.WriteAll
	}

	r := &runner{
		cfg:     cfg,
		deps:    deps,
		rep:     rep,
		metrics: observability.NewMetrics(),
		log:     logging.Global(),
	}

	res, err := r.run(ctx, runID)
	if cfg.Metrics {
		if err == nil {
			r.metrics.RunSuccess.Set(1)
		}
		path := cfg.MetricsPath()
		if werr := r.metrics.WriteTextfile(path); werr != nil {
			rep.Warning(fmt.Sprintf("Could not write metrics: %v", werr))
		} else if res != nil {
			res.MetricsPath = path
		}
	}
	return res, err
}

type runner struct {
	cfg     *config.Config
	deps    Deps
	rep     reporter.Reporter
	metrics *observability.Metrics
	log     *logging.Logger
}

// fail reports a fatal stage error and returns it unchanged.
func (r *runner) fail(title, suggestion string, err error) error {
	if ferrors.IsCancelled(err) {
		r.log.Warn("run cancelled", "stage", title)
		r.rep.Warning("Run cancelled")
		return err
	}
	r.log.Error(title, "error", err)
	r.rep.Error(reporter.ReporterError{
		Title:      title,
		Message:    err.Error(),
		Context:    fmt.Sprintf("Video: %s", r.cfg.VideoPath),
		Suggestion: suggestion,
	})
	return err
}

// timed runs fn and records its wall time under stage.
func (r *runner) timed(stage string, fn func() error) error {
	start := r.deps.Clock.Now()
	err := fn()
	elapsed := r.deps.Clock.Since(start)
	r.metrics.ObserveStage(stage, elapsed.Seconds())
	r.log.Debug("stage finished", "stage", stage, "elapsed", elapsed, "ok", err == nil)
	r.rep.Verbose(fmt.Sprintf("%s finished in %s", stage, elapsed.Round(time.Millisecond)))
	return err
}

func (r *runner) run(ctx context.Context, runID string) (*Result, error) {
	cfg := r.cfg
	start := r.deps.Clock.Now()
	res := &Result{RunID: runID}

	sys := util.GetSystemInfo()
	r.rep.Hardware(reporter.HardwareSummary{
		Hostname: sys.Hostname,
		OS:       sys.OS,
		Arch:     sys.Arch,
		NumCPU:   sys.NumCPU,
	})

	if err := util.EnsureDirectoryWritable(cfg.OutputDir); err != nil {
		return nil, r.fail("Output Error",
			"Check that the output directory can be created and written",
			ferrors.NewIOError(fmt.Sprintf("output directory %s is not writable", cfg.OutputDir), err))
	}
	if free, low := util.LowDiskSpace(cfg.OutputDir, cfg.MinFreeDiskBytes); low {
		r.rep.Warning(fmt.Sprintf("Only %s free in %s; frame extraction may fill the disk",
			util.FormatBytes(free), cfg.OutputDir))
	}

	if !util.HasVideoExtension(cfg.VideoPath) {
		r.rep.Warning(fmt.Sprintf("%s does not have a known video extension", util.GetFilename(cfg.VideoPath)))
	}
	if size, err := util.GetFileSize(cfg.VideoPath); err == nil {
		r.log.Info("input video", "path", cfg.VideoPath, "size", util.FormatBytes(size))
	}

	// Probe
	err := r.timed(StageProbe, func() error {
		info, err := r.deps.Prober.Probe(ctx, cfg.VideoPath)
		if err != nil {
			return err
		}
		if !info.HasAudio {
			return ferrors.NewInputError(fmt.Sprintf("%s has no audio track", cfg.VideoPath), nil)
		}
		res.Media = info
		return nil
	})
	if err != nil {
		return nil, r.fail("Input Error", "Check that the file is a readable video with an audio track", err)
	}

	r.rep.Initialization(reporter.InitializationSummary{
		RunID:            runID,
		InputFile:        util.GetFilename(cfg.VideoPath),
		OutputDir:        cfg.OutputDir,
		Duration:         util.FormatDuration(res.Media.Duration),
		Resolution:       fmt.Sprintf("%dx%d", res.Media.Width, res.Media.Height),
		FrameRate:        fmt.Sprintf("%.3f fps", res.Media.FrameRate),
		AudioDescription: audioDescription(res.Media),
		Location:         fmt.Sprintf("%.4f, %.4f", cfg.Latitude, cfg.Longitude),
		WeatherDate:      cfg.WeatherDate.String(),
	})

	// Frames and flash
	var seq flash.FrameSequence
	var frames []string
	err = r.timed(StageFrames, func() error {
		r.rep.ExtractionStarted(StageFrames, res.Media.TotalFrames)
		s, err := r.deps.Frames.Extract(ctx, cfg.VideoPath, cfg.FramesDir(), func(done, total int) {
			snap := reporter.ProgressSnapshot{Stage: StageFrames, Current: uint64(done), Total: uint64(total)}
			if total > 0 {
				snap.Percent = float32(done) / float32(total) * 100
			}
			r.rep.ExtractionProgress(snap)
		})
		if err != nil {
			return err
		}
		frames = framePaths(s)
		seq = withFrameRate(s, res.Media.FrameRate)
		if seq.FPS() <= 0 {
			return ferrors.NewInputError(fmt.Sprintf("could not determine the frame rate of %s", cfg.VideoPath), nil)
		}
		r.metrics.FramesDecoded.Set(float64(seq.Len()))
		return nil
	})
	if err != nil {
		return nil, r.fail("Frame Extraction Error", "Check that OpenCV can decode this video", err)
	}

	err = r.timed(StageFlash, func() error {
		ev, brightness, err := flash.DetectSequence(seq)
		if err != nil {
			return err
		}
		res.Flash, res.Brightness = ev, brightness
		return nil
	})
	if err != nil {
		suggestion := "Check that the extracted frames are readable images"
		if ferrors.IsInsufficientData(err) {
			suggestion = "The video needs at least two decodable frames"
		}
		return nil, r.fail("Flash Detection Error", suggestion, err)
	}
	r.metrics.FlashTime.Set(res.Flash.Time)
	r.log.Info("flash detected", "frame", res.Flash.Frame, "time", res.Flash.Time, "fps", seq.FPS())
	r.rep.FlashDetected(reporter.FlashSummary{
		Frame:      res.Flash.Frame,
		Time:       res.Flash.Time,
		FPS:        seq.FPS(),
		FrameCount: seq.Len(),
		Brightness: res.Brightness[res.Flash.Frame],
		Baseline:   flash.Baseline(res.Brightness, res.Flash.Frame),
	})

	// Audio and sound peak
	err = r.timed(StageAudio, func() error {
		r.rep.ExtractionStarted(StageAudio, 0)
		params := &ffmpeg.ExtractParams{
			InputPath:  cfg.VideoPath,
			OutputPath: cfg.AudioPath(),
			Duration:   res.Media.Duration,
		}
		return r.deps.Audio.Extract(ctx, params, func(p ffmpeg.Progress) {
			r.rep.ExtractionProgress(reporter.ProgressSnapshot{
				Stage:   StageAudio,
				Percent: p.Percent,
				Speed:   p.Speed,
				ETA:     p.ETA,
			})
		})
	})
	if err != nil {
		return nil, r.fail("Audio Extraction Error", "Check that ffmpeg is installed and the video has an audio track", err)
	}

	var wave *audio.Waveform
	err = r.timed(StageSound, func() error {
		w, err := audio.Load(cfg.AudioPath())
		if err != nil {
			return err
		}
		ev, err := audio.DetectPeak(w)
		if err != nil {
			return err
		}
		wave, res.Sound = w, ev
		return nil
	})
	if err != nil {
		return nil, r.fail("Sound Detection Error", "Check that the extracted audio is not empty", err)
	}
	r.metrics.SoundTime.Set(res.Sound.Time)
	r.log.Info("sound peak detected", "window", res.Sound.Window, "time", res.Sound.Time, "sample_rate", wave.SampleRate)
	r.rep.SoundDetected(reporter.SoundSummary{
		Window:     res.Sound.Window,
		Time:       res.Sound.Time,
		Energy:     res.Sound.Energy,
		SampleRate: wave.SampleRate,
		Duration:   wave.Duration(),
	})

	// Weather
	r.rep.StageProgress(reporter.StageProgress{
		Stage:   StageWeather,
		Message: fmt.Sprintf("Looking up temperature for %s", cfg.WeatherDate),
	})
	err = r.timed(StageWeather, func() error {
		r.metrics.WeatherLookups.Inc()
		reading, err := r.deps.Weather.Lookup(ctx, cfg.Latitude, cfg.Longitude, cfg.WeatherDate)
		if err != nil {
			return err
		}
		res.Weather = reading
		return nil
	})
	if err != nil {
		return nil, r.fail("Weather Unavailable", "Check network access or try a different --temp date", err)
	}
	r.metrics.TemperatureC.Set(res.Weather.TemperatureC)
	r.metrics.ObserveWeather(string(res.Weather.Endpoint), res.Weather.Fallback)
	if res.Weather.Fallback {
		r.rep.Warning(fmt.Sprintf("No 12:00 temperature for %s; using the reading at %s",
			res.Weather.Date, res.Weather.Time))
	}
	r.rep.WeatherResolved(reporter.WeatherSummary{
		Date:         res.Weather.Date,
		Time:         res.Weather.Time,
		TemperatureC: res.Weather.TemperatureC,
		Fallback:     res.Weather.Fallback,
		Endpoint:     string(res.Weather.Endpoint),
	})

	// Estimate
	res.Estimate = estimate.Distance(res.Flash.Time, res.Sound.Time, res.Weather.TemperatureC)
	r.metrics.Delay.Set(res.Estimate.Delay)
	r.metrics.DistanceMeters.Set(res.Estimate.Meters)
	r.log.Info("distance estimated",
		"delay", res.Estimate.Delay,
		"speed_of_sound", res.Estimate.SpeedOfSound,
		"distance_m", res.Estimate.Meters)
	if res.Estimate.NonPositiveDelay() {
		r.rep.Warning(fmt.Sprintf("Sound peak (%s) is not after the flash (%s); the distance is not meaningful",
			util.FormatSeconds(res.Sound.Time), util.FormatSeconds(res.Flash.Time)))
	}

	// Plots never fail the run.
	if cfg.Plot {
		r.rep.StageProgress(reporter.StageProgress{Stage: StagePlots, Message: "Rendering plots"})
		_ = r.timed(StagePlots, func() error {
			plots, err := r.deps.Plot(cfg.OutputDir, plot.Data{
				Brightness: res.Brightness,
				FPS:        seq.FPS(),
				FlashFrame: res.Flash.Frame,
				Baseline:   flash.Baseline(res.Brightness, res.Flash.Frame),
				Waveform:   wave,
				Estimate:   res.Estimate,
			})
			res.Plots = plots
			if err != nil {
				r.rep.Warning(fmt.Sprintf("Could not render plots: %v", err))
			}
			return err
		})
	}

	// CSV row
	res.LogPath = cfg.LogCSVPath()
	res.Record = runlog.Record{
		Timestamp:    r.deps.Clock.Now(),
		VideoFile:    cfg.VideoPath,
		FlashTime:    res.Flash.Time,
		SoundTime:    res.Sound.Time,
		TemperatureC: res.Weather.TemperatureC,
		DistanceM:    res.Estimate.Meters,
		Latitude:     cfg.Latitude,
		Longitude:    cfg.Longitude,
		WeatherDate:  res.Weather.Date,
		KeepFiles:    cfg.KeepFiles,
	}
	err = r.timed(StageLog, func() error {
		return runlog.Append(res.LogPath, res.Record)
	})
	if err != nil {
		return nil, r.fail("Log Error", "Check that the output directory is writable", err)
	}

	if !cfg.KeepFiles {
		_ = r.timed(StageCleanup, func() error {
			cleaned, err := runlog.Cleanup(cfg.FramesDir(), frames, cfg.AudioPath())
			res.Cleanup = cleaned
			if err != nil {
				r.rep.Warning(fmt.Sprintf("Cleanup incomplete: %v", err))
			}
			return err
		})
	}

	res.Duration = r.deps.Clock.Since(start)
	r.rep.EstimateComplete(reporter.EstimateOutcome{
		InputFile:    util.GetFilename(cfg.VideoPath),
		FlashTime:    res.Flash.Time,
		SoundTime:    res.Sound.Time,
		Delay:        res.Estimate.Delay,
		TemperatureC: res.Weather.TemperatureC,
		SpeedOfSound: res.Estimate.SpeedOfSound,
		DistanceM:    res.Estimate.Meters,
		DistanceKM:   res.Estimate.Kilometers(),
		LogPath:      res.LogPath,
		Plots:        res.Plots,
		TotalTime:    res.Duration,
	})
	r.rep.Warning(Disclaimer)
	r.rep.OperationComplete(fmt.Sprintf("Estimated distance: %s", util.FormatDistance(res.Estimate.Meters)))

	return res, nil
}

func audioDescription(info *ffprobe.MediaInfo) string {
	if !info.HasAudio {
		return "none"
	}
	layout := fmt.Sprintf("%d channels", info.Channels)
	switch info.Channels {
	case 1:
		layout = "mono"
	case 2:
		layout = "stereo"
	}
	return fmt.Sprintf("%s, %s, %d Hz", info.AudioCodec, layout, info.SampleRate)
}

// framePaths lists the files behind seq when it is backed by files on disk.
func framePaths(seq flash.FrameSequence) []string {
	p, ok := seq.(interface{ Path(i int) string })
	if !ok {
		return nil
	}
	paths := make([]string, seq.Len())
	for i := range paths {
		paths[i] = p.Path(i)
	}
	return paths
}

// rateOverride substitutes the container frame rate when the decoder
// reports none.
type rateOverride struct {
	flash.FrameSequence
	fps float64
}

func (s rateOverride) FPS() float64 { return s.fps }

func withFrameRate(seq flash.FrameSequence, fallback float64) flash.FrameSequence {
	if seq.FPS() > 0 || fallback <= 0 {
		return seq
	}
	return rateOverride{FrameSequence: seq, fps: fallback}
}
