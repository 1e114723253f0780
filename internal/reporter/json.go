package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events, one object per line.
type JSONReporter struct {
	writer             io.Writer
	runID              string
	now                func() time.Time
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter(runID string) *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout, runID)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer, runID string) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		runID:              runID,
		now:                time.Now,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return r.now().Unix()
}

func (r *JSONReporter) write(v map[string]any) {
	v["timestamp"] = r.timestamp()
	if r.runID != "" {
		v["run_id"] = r.runID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) Hardware(summary HardwareSummary) {
	r.write(map[string]any{
		"type":     "hardware",
		"hostname": summary.Hostname,
		"os":       summary.OS,
		"arch":     summary.Arch,
		"num_cpu":  summary.NumCPU,
	})
}

func (r *JSONReporter) Initialization(summary InitializationSummary) {
	r.write(map[string]any{
		"type":              "initialization",
		"input_file":        summary.InputFile,
		"output_dir":        summary.OutputDir,
		"duration":          summary.Duration,
		"resolution":        summary.Resolution,
		"frame_rate":        summary.FrameRate,
		"audio_description": summary.AudioDescription,
		"location":          summary.Location,
		"weather_date":      summary.WeatherDate,
	})
}

func (r *JSONReporter) StageProgress(update StageProgress) {
	event := map[string]any{
		"type":    "stage_progress",
		"stage":   update.Stage,
		"percent": update.Percent,
		"message": update.Message,
	}
	if update.ETA != nil {
		event["eta_seconds"] = int64(update.ETA.Seconds())
	}
	r.write(event)
}

func (r *JSONReporter) ExtractionStarted(stage string, total uint64) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]any{
		"type":  "extraction_started",
		"stage": stage,
		"total": total,
	})
}

func (r *JSONReporter) ExtractionProgress(progress ProgressSnapshot) {
	const progressBucketSize = 5
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := r.now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]any{
		"type":        "extraction_progress",
		"stage":       progress.Stage,
		"current":     progress.Current,
		"total":       progress.Total,
		"percent":     progress.Percent,
		"speed":       progress.Speed,
		"eta_seconds": int64(progress.ETA.Seconds()),
	})
}

func (r *JSONReporter) FlashDetected(summary FlashSummary) {
	r.write(map[string]any{
		"type":        "flash_detected",
		"frame":       summary.Frame,
		"time":        summary.Time,
		"fps":         summary.FPS,
		"frame_count": summary.FrameCount,
		"brightness":  summary.Brightness,
		"baseline":    summary.Baseline,
	})
}

func (r *JSONReporter) SoundDetected(summary SoundSummary) {
	r.write(map[string]any{
		"type":        "sound_detected",
		"window":      summary.Window,
		"time":        summary.Time,
		"energy":      summary.Energy,
		"sample_rate": summary.SampleRate,
		"duration":    summary.Duration,
	})
}

func (r *JSONReporter) WeatherResolved(summary WeatherSummary) {
	r.write(map[string]any{
		"type":          "weather_resolved",
		"date":          summary.Date,
		"time":          summary.Time,
		"temperature_c": summary.TemperatureC,
		"fallback":      summary.Fallback,
		"endpoint":      summary.Endpoint,
	})
}

func (r *JSONReporter) EstimateComplete(summary EstimateOutcome) {
	plots := summary.Plots
	if plots == nil {
		plots = []string{}
	}
	r.write(map[string]any{
		"type":             "estimate_complete",
		"input_file":       summary.InputFile,
		"flash_time":       summary.FlashTime,
		"sound_time":       summary.SoundTime,
		"delay":            summary.Delay,
		"temperature_c":    summary.TemperatureC,
		"speed_of_sound":   summary.SpeedOfSound,
		"distance_m":       summary.DistanceM,
		"distance_km":      summary.DistanceKM,
		"log_path":         summary.LogPath,
		"plots":            plots,
		"duration_seconds": summary.TotalTime.Seconds(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]any{
		"type":    "warning",
		"message": message,
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]any{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]any{
		"type":    "operation_complete",
		"message": message,
	})
}

// Verbose messages are not part of the event stream.
func (r *JSONReporter) Verbose(string) {}
