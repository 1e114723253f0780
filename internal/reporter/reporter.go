package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	Hardware(summary HardwareSummary)
	Initialization(summary InitializationSummary)
	StageProgress(update StageProgress)
	ExtractionStarted(stage string, total uint64)
	ExtractionProgress(progress ProgressSnapshot)
	FlashDetected(summary FlashSummary)
	SoundDetected(summary SoundSummary)
	WeatherResolved(summary WeatherSummary)
	EstimateComplete(summary EstimateOutcome)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) Hardware(HardwareSummary)             {}
func (NullReporter) Initialization(InitializationSummary) {}
func (NullReporter) StageProgress(StageProgress)          {}
func (NullReporter) ExtractionStarted(string, uint64)     {}
func (NullReporter) ExtractionProgress(ProgressSnapshot)  {}
func (NullReporter) FlashDetected(FlashSummary)           {}
func (NullReporter) SoundDetected(SoundSummary)           {}
func (NullReporter) WeatherResolved(WeatherSummary)       {}
func (NullReporter) EstimateComplete(EstimateOutcome)     {}
func (NullReporter) Warning(string)                       {}
func (NullReporter) Error(ReporterError)                  {}
func (NullReporter) OperationComplete(string)             {}
func (NullReporter) Verbose(string)                       {}
