package flash

import (
	"errors"
	"testing"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// sliceSequence is an in-memory FrameSequence.
type sliceSequence struct {
	luma []float64
	fps  float64
	fail int
}

func (s sliceSequence) Len() int     { return len(s.luma) }
func (s sliceSequence) FPS() float64 { return s.fps }
func (s sliceSequence) Luma(i int) (float64, error) {
	if s.fail > 0 && i == s.fail {
		return 0, errors.New("corrupt jpeg")
	}
	return s.luma[i], nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		brightness []float64
		want       int
	}{
		{"spike at 1", []float64{10, 200, 10, 10}, 1},
		{"spike at 5", []float64{20, 20, 20, 20, 20, 180, 20, 20}, 5},
		{"spike at last frame", []float64{5, 5, 5, 250}, 3},
		{"step up stays high", []float64{30, 31, 30, 140, 150, 149}, 3},
		{"two frames", []float64{0, 1}, 1},
		{"flat picks first", []float64{128, 128, 128, 128}, 1},
		{"equal jumps pick first", []float64{0, 50, 50, 100}, 1},
		{"decreasing picks smallest drop", []float64{100, 90, 89, 70}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.brightness)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect(%v) = %d, want %d", tt.brightness, got, tt.want)
			}
		})
	}
}

func TestDetectSpikeAtEveryPosition(t *testing.T) {
	const n = 12
	for k := 1; k < n; k++ {
		brightness := make([]float64, n)
		for i := range brightness {
			brightness[i] = 40
		}
		brightness[k] = 220

		got, err := Detect(brightness)
		if err != nil {
			t.Fatalf("k=%d: Detect() error = %v", k, err)
		}
		if got != k {
			t.Errorf("spike at %d detected at %d", k, got)
		}
	}
}

func TestDetectInsufficientData(t *testing.T) {
	for _, brightness := range [][]float64{nil, {}, {42}} {
		_, err := Detect(brightness)
		if err == nil {
			t.Fatalf("Detect(%v) expected error", brightness)
		}
		if !errors.Is(err, ferrors.ErrInsufficientData) {
			t.Errorf("Detect(%v) error = %v, want ErrInsufficientData", brightness, err)
		}
		if !ferrors.IsKind(err, ferrors.KindDetection) {
			t.Errorf("Detect(%v) error kind should be detection", brightness)
		}
	}
}

func TestDetectSequence(t *testing.T) {
	seq := sliceSequence{luma: []float64{12, 12, 13, 12, 240, 200, 90}, fps: 25}

	event, brightness, err := DetectSequence(seq)
	if err != nil {
		t.Fatalf("DetectSequence() error = %v", err)
	}
	if event.Frame != 4 {
		t.Errorf("Frame = %d, want 4", event.Frame)
	}
	if event.Time != 0.16 {
		t.Errorf("Time = %v, want 0.16", event.Time)
	}
	if len(brightness) != seq.Len() {
		t.Errorf("len(brightness) = %d, want %d", len(brightness), seq.Len())
	}
}

func TestDetectSequenceErrors(t *testing.T) {
	t.Run("zero fps", func(t *testing.T) {
		_, _, err := DetectSequence(sliceSequence{luma: []float64{1, 2}, fps: 0})
		if !ferrors.IsKind(err, ferrors.KindDetection) {
			t.Errorf("expected detection error, got %v", err)
		}
	})

	t.Run("unreadable frame", func(t *testing.T) {
		_, _, err := DetectSequence(sliceSequence{luma: []float64{1, 2, 3}, fps: 30, fail: 2})
		if err == nil {
			t.Fatal("expected error")
		}
		if !ferrors.IsKind(err, ferrors.KindDetection) {
			t.Errorf("expected detection error, got %v", err)
		}
	})

	t.Run("single frame", func(t *testing.T) {
		_, _, err := DetectSequence(sliceSequence{luma: []float64{1}, fps: 30})
		if !ferrors.IsInsufficientData(err) {
			t.Errorf("expected insufficient data, got %v", err)
		}
	})
}

func TestBaseline(t *testing.T) {
	brightness := []float64{10, 20, 30, 200}

	if got := Baseline(brightness, 3); got != 20 {
		t.Errorf("Baseline(.., 3) = %v, want 20", got)
	}
	if got := Baseline(brightness, 0); got != 10 {
		t.Errorf("Baseline(.., 0) = %v, want 10", got)
	}
	if got := Baseline(nil, 0); got != 0 {
		t.Errorf("Baseline(nil, 0) = %v, want 0", got)
	}
}
