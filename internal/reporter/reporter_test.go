package reporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func decodeEvents(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var events []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var ev map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestJSONReporterEvents(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf, "run-123")
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	r.FlashDetected(FlashSummary{Frame: 30, Time: 1, FPS: 30})
	r.WeatherResolved(WeatherSummary{Date: "2024-01-01", Time: "12:00", TemperatureC: 20})
	r.EstimateComplete(EstimateOutcome{FlashTime: 1, SoundTime: 3, Delay: 2, TemperatureC: 20, SpeedOfSound: 343, DistanceM: 686})
	r.Verbose("not emitted")

	events := decodeEvents(t, &buf)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	wantTypes := []string{"flash_detected", "weather_resolved", "estimate_complete"}
	for i, ev := range events {
		if ev["type"] != wantTypes[i] {
			t.Errorf("event %d type = %v, want %s", i, ev["type"], wantTypes[i])
		}
		if ev["run_id"] != "run-123" {
			t.Errorf("event %d run_id = %v", i, ev["run_id"])
		}
		if ev["timestamp"] != float64(1700000000) {
			t.Errorf("event %d timestamp = %v", i, ev["timestamp"])
		}
	}

	final := events[2]
	if final["distance_m"] != float64(686) {
		t.Errorf("distance_m = %v, want 686", final["distance_m"])
	}
	if plots, ok := final["plots"].([]any); !ok || len(plots) != 0 {
		t.Errorf("plots = %v, want empty array", final["plots"])
	}
}

func TestJSONReporterThrottlesProgress(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf, "")
	now := time.Unix(1700000000, 0)
	r.now = func() time.Time { return now }

	r.ExtractionStarted("frames", 100)
	for i := 1; i <= 10; i++ {
		r.ExtractionProgress(ProgressSnapshot{Stage: "frames", Current: uint64(i), Total: 100, Percent: float32(i)})
	}

	events := decodeEvents(t, &buf)
	// started + 0-4% bucket + 5-9% bucket + 10% bucket
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if _, ok := events[0]["run_id"]; ok {
		t.Error("run_id should be omitted when empty")
	}

	now = now.Add(6 * time.Second)
	r.ExtractionProgress(ProgressSnapshot{Stage: "frames", Percent: 10})
	if got := len(decodeEvents(t, &buf)); got != 1 {
		t.Errorf("expected interval-triggered event, got %d", got)
	}
}

func newTestTerminal(verbose bool) (*TerminalReporter, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	r := NewTerminalReporter(verbose)
	r.out = &out
	r.errOut = &errOut
	return r, &out, &errOut
}

func TestTerminalReporterResults(t *testing.T) {
	r, out, _ := newTestTerminal(false)

	r.EstimateComplete(EstimateOutcome{
		FlashTime:    1,
		SoundTime:    3,
		Delay:        2,
		TemperatureC: 20,
		SpeedOfSound: 343,
		DistanceM:    686,
		LogPath:      "output/log.csv",
		Plots:        []string{"output/brightness.png"},
	})

	s := out.String()
	for _, want := range []string{"RESULTS", "1.000 s", "3.000 s", "20.0 °C", "343.0 m/s", "686.0 m", "output/log.csv", "output/brightness.png"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestTerminalReporterVerboseAndErrors(t *testing.T) {
	r, out, errOut := newTestTerminal(false)
	r.Verbose("hidden detail")
	if strings.Contains(out.String(), "hidden detail") {
		t.Error("verbose message printed without verbose flag")
	}

	r.Error(ReporterError{Title: "Weather unavailable", Message: "status 503", Suggestion: "retry later"})
	if !strings.Contains(errOut.String(), "ERROR Weather unavailable") || !strings.Contains(errOut.String(), "retry later") {
		t.Errorf("unexpected error output:\n%s", errOut.String())
	}

	r, out, _ = newTestTerminal(true)
	r.Verbose("shown detail")
	if !strings.Contains(out.String(), "shown detail") {
		t.Error("verbose message missing with verbose flag")
	}
}

func TestTerminalReporterWeatherFallback(t *testing.T) {
	r, out, _ := newTestTerminal(false)
	r.WeatherResolved(WeatherSummary{Date: "2024-01-01", Time: "11:00", TemperatureC: 4.5, Fallback: true})

	if !strings.Contains(out.String(), "nearest hour") {
		t.Errorf("fallback not flagged:\n%s", out.String())
	}
}

type countingReporter struct {
	NullReporter
	warnings int
}

func (c *countingReporter) Warning(string) { c.warnings++ }

func TestCompositeReporterFansOut(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}
	var r Reporter = NewCompositeReporter(a, b, NullReporter{})

	r.Warning("negative delay")
	r.Warning("low disk")

	if a.warnings != 2 || b.warnings != 2 {
		t.Errorf("warnings = %d/%d, want 2/2", a.warnings, b.warnings)
	}
}
