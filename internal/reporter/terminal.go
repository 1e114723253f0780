package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/flashbang/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	out        io.Writer
	errOut     io.Writer
	verbose    bool
	progress   *progressbar.ProgressBar
	maxPercent float32
	lastStage  string
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
	faint      *color.Color
}

// NewTerminalReporter creates a new terminal reporter. Verbose messages are
// printed only when verbose is set.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     os.Stdout,
		errOut:  os.Stderr,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

func (r *TerminalReporter) section(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, title)
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) Hardware(summary HardwareSummary) {
	r.section("HARDWARE")
	r.printLabel(10, "Hostname:", summary.Hostname)
	r.printLabel(10, "Platform:", fmt.Sprintf("%s/%s, %d CPUs", summary.OS, summary.Arch, summary.NumCPU))
}

func (r *TerminalReporter) Initialization(summary InitializationSummary) {
	r.section("INPUT")
	r.printLabel(11, "File:", summary.InputFile)
	r.printLabel(11, "Duration:", summary.Duration)
	r.printLabel(11, "Resolution:", summary.Resolution)
	r.printLabel(11, "Frame rate:", summary.FrameRate)
	r.printLabel(11, "Audio:", summary.AudioDescription)
	r.printLabel(11, "Location:", summary.Location)
	r.printLabel(11, "Weather:", summary.WeatherDate)
	r.printLabel(11, "Output:", summary.OutputDir)
	if r.verbose && summary.RunID != "" {
		r.printLabel(11, "Run ID:", r.faint.Sprint(summary.RunID))
	}
}

func (r *TerminalReporter) StageProgress(update StageProgress) {
	r.mu.Lock()
	if r.lastStage != update.Stage {
		r.mu.Unlock()
		r.section(strings.ToUpper(update.Stage))
		r.mu.Lock()
		r.lastStage = update.Stage
	}
	r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.magenta.Sprint("›"), update.Message)
}

func (r *TerminalReporter) ExtractionStarted(stage string, total uint64) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      fmt.Sprintf("%s [", stageLabel(stage)),
			BarEnd:        "]",
		}),
	)
}

func stageLabel(stage string) string {
	if stage == "" {
		return "Working"
	}
	return strings.ToUpper(stage[:1]) + stage[1:]
}

func (r *TerminalReporter) ExtractionProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := max(min(progress.Percent, 100), 0)
	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	var desc string
	switch {
	case progress.Total > 0:
		desc = fmt.Sprintf("%d/%d", progress.Current, progress.Total)
	case progress.Current > 0:
		desc = fmt.Sprintf("%d", progress.Current)
	}
	if progress.Speed > 0 {
		desc = strings.TrimSpace(fmt.Sprintf("%s speed %.1fx, eta %s",
			desc, progress.Speed, util.FormatDuration(progress.ETA.Seconds())))
	}
	r.progress.Describe(desc)
}

func (r *TerminalReporter) FlashDetected(summary FlashSummary) {
	r.finishProgress()
	r.section("FLASH")
	r.printLabel(11, "Frame:", fmt.Sprintf("%d of %d at %.3f fps", summary.Frame, summary.FrameCount, summary.FPS))
	r.printLabel(11, "Time:", util.FormatSeconds(summary.Time))
	r.printLabel(11, "Brightness:", fmt.Sprintf("%.1f (baseline %.1f)", summary.Brightness, summary.Baseline))
}

func (r *TerminalReporter) SoundDetected(summary SoundSummary) {
	r.finishProgress()
	r.section("SOUND")
	r.printLabel(11, "Window:", fmt.Sprintf("%d at %d Hz", summary.Window, summary.SampleRate))
	r.printLabel(11, "Time:", util.FormatSeconds(summary.Time))
	r.printLabel(11, "Energy:", fmt.Sprintf("%.4g", summary.Energy))
}

func (r *TerminalReporter) WeatherResolved(summary WeatherSummary) {
	r.section("WEATHER")
	at := summary.Date + " " + summary.Time
	if summary.Fallback {
		at += r.faint.Sprint(" (no 12:00 reading, nearest hour used)")
	}
	r.printLabel(11, "Sample:", at)
	r.printLabel(11, "Temp:", util.FormatTemperature(summary.TemperatureC))
}

func (r *TerminalReporter) EstimateComplete(summary EstimateOutcome) {
	r.finishProgress()

	r.section("RESULTS")
	r.printLabel(13, "Flash time:", util.FormatSeconds(summary.FlashTime))
	r.printLabel(13, "Sound time:", util.FormatSeconds(summary.SoundTime))
	r.printLabel(13, "Delay:", util.FormatSeconds(summary.Delay))
	r.printLabel(13, "Temperature:", util.FormatTemperature(summary.TemperatureC))
	r.printLabel(13, "Sound speed:", fmt.Sprintf("%.1f m/s", summary.SpeedOfSound))
	_, _ = fmt.Fprintf(r.out, "  %s %s\n",
		r.bold.Sprintf("%-13s", "Distance:"),
		r.green.Add(color.Bold).Sprint(util.FormatDistance(summary.DistanceM)))
	r.printLabel(13, "Logged to:", summary.LogPath)
	for _, p := range summary.Plots {
		r.printLabel(13, "Plot:", p)
	}
	r.printLabel(13, "Time:", util.FormatDuration(summary.TotalTime.Seconds()))
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()
	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", r.green.Add(color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprint(message))
}
