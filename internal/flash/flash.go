// Package flash locates the frame at which scene brightness jumps the most.
//
// The detector takes the first difference of the per-frame mean luma and
// picks its maximum. No smoothing is applied, so a single-frame noise spike is
// indistinguishable from a genuine flash.
package flash

import (
	"fmt"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// FrameSequence is an ordered, immutable sequence of decoded frames.
type FrameSequence interface {
	// Len returns the number of frames.
	Len() int
	// FPS returns the frame rate in frames per second.
	FPS() float64
	// Luma returns the mean grayscale intensity of frame i.
	Luma(i int) (float64, error)
}

// Event is the detected flash.
type Event struct {
	Frame int     // index of the frame after the sharpest brightness increase
	Time  float64 // seconds, Frame / fps
}

// Brightness computes the mean luma of every frame in order.
func Brightness(seq FrameSequence) ([]float64, error) {
	n := seq.Len()
	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v, err := seq.Luma(i)
		if err != nil {
			return nil, ferrors.NewDetectionError(fmt.Sprintf("failed to read frame %d", i), err)
		}
		values = append(values, v)
	}
	return values, nil
}

// Detect returns argmax(diff(brightness)) + 1. Ties resolve to the earliest
// frame. Fewer than two values is an insufficient-data error.
func Detect(brightness []float64) (int, error) {
	if len(brightness) < 2 {
		return 0, ferrors.NewInsufficientDataError(
			fmt.Sprintf("need at least 2 frames to detect a flash, got %d", len(brightness)))
	}

	best := 0
	bestDiff := brightness[1] - brightness[0]
	for i := 1; i < len(brightness)-1; i++ {
		if d := brightness[i+1] - brightness[i]; d > bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best + 1, nil
}

// DetectSequence computes brightness for seq and locates the flash.
func DetectSequence(seq FrameSequence) (Event, []float64, error) {
	fps := seq.FPS()
	if fps <= 0 {
		return Event{}, nil, ferrors.NewDetectionError(fmt.Sprintf("invalid frame rate %v", fps), nil)
	}

	brightness, err := Brightness(seq)
	if err != nil {
		return Event{}, nil, err
	}

	frame, err := Detect(brightness)
	if err != nil {
		return Event{}, brightness, err
	}

	return Event{Frame: frame, Time: float64(frame) / fps}, brightness, nil
}

// Baseline returns the mean brightness of the frames before the flash.
// It returns the flash frame's own brightness when there are no earlier frames.
func Baseline(brightness []float64, frame int) float64 {
	if frame > len(brightness) || len(brightness) == 0 {
		return 0
	}
	if frame <= 0 {
		return brightness[0]
	}
	var sum float64
	for _, v := range brightness[:frame] {
		sum += v
	}
	return sum / float64(frame)
}
