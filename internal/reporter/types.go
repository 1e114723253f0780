// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// HardwareSummary contains host information.
type HardwareSummary struct {
	Hostname string
	OS       string
	Arch     string
	NumCPU   int
}

// InitializationSummary describes the run before analysis starts.
type InitializationSummary struct {
	RunID            string
	InputFile        string
	OutputDir        string
	Duration         string
	Resolution       string
	FrameRate        string
	AudioDescription string
	Location         string
	WeatherDate      string
}

// StageProgress represents a generic stage update.
type StageProgress struct {
	Stage   string
	Percent float32
	Message string
	ETA     *time.Duration
}

// ProgressSnapshot contains progress for a long-running extraction step.
type ProgressSnapshot struct {
	Stage   string
	Current uint64
	Total   uint64
	Percent float32
	Speed   float32
	ETA     time.Duration
}

// FlashSummary describes the detected flash.
type FlashSummary struct {
	Frame      int
	Time       float64
	FPS        float64
	FrameCount int
	Brightness float64
	Baseline   float64
}

// SoundSummary describes the detected sound peak.
type SoundSummary struct {
	Window     int
	Time       float64
	Energy     float64
	SampleRate int
	Duration   float64
}

// WeatherSummary describes the temperature used for the speed of sound.
type WeatherSummary struct {
	Date         string
	Time         string
	TemperatureC float64
	Fallback     bool
	Endpoint     string
}

// EstimateOutcome contains the final estimate.
type EstimateOutcome struct {
	InputFile    string
	FlashTime    float64
	SoundTime    float64
	Delay        float64
	TemperatureC float64
	SpeedOfSound float64
	DistanceM    float64
	DistanceKM   float64
	LogPath      string
	Plots        []string
	TotalTime    time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}
