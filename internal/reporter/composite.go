package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) Hardware(summary HardwareSummary) {
	for _, r := range c.reporters {
		r.Hardware(summary)
	}
}

func (c *CompositeReporter) Initialization(summary InitializationSummary) {
	for _, r := range c.reporters {
		r.Initialization(summary)
	}
}

func (c *CompositeReporter) StageProgress(update StageProgress) {
	for _, r := range c.reporters {
		r.StageProgress(update)
	}
}

func (c *CompositeReporter) ExtractionStarted(stage string, total uint64) {
	for _, r := range c.reporters {
		r.ExtractionStarted(stage, total)
	}
}

func (c *CompositeReporter) ExtractionProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.ExtractionProgress(progress)
	}
}

func (c *CompositeReporter) FlashDetected(summary FlashSummary) {
	for _, r := range c.reporters {
		r.FlashDetected(summary)
	}
}

func (c *CompositeReporter) SoundDetected(summary SoundSummary) {
	for _, r := range c.reporters {
		r.SoundDetected(summary)
	}
}

func (c *CompositeReporter) WeatherResolved(summary WeatherSummary) {
	for _, r := range c.reporters {
		r.WeatherResolved(summary)
	}
}

func (c *CompositeReporter) EstimateComplete(summary EstimateOutcome) {
	for _, r := range c.reporters {
		r.EstimateComplete(summary)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
