package audio

import (
	"fmt"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// Short-time energy analysis parameters, in samples.
const (
	FrameLength = 2048
	HopLength   = 512
)

// Event is the loudest analysis window of a waveform.
type Event struct {
	Window int     // index of the loudest window
	Time   float64 // seconds, Window * HopLength / sample rate
	Energy float64
}

// Energies returns the sum of squared samples for windows of frameLength
// starting every hop samples. Windows running past the end are partial.
func Energies(samples []float64, frameLength, hop int) []float64 {
	if frameLength <= 0 || hop <= 0 {
		return nil
	}
	energies := make([]float64, 0, len(samples)/hop+1)
	for start := 0; start < len(samples); start += hop {
		end := min(start+frameLength, len(samples))
		var e float64
		for _, s := range samples[start:end] {
			e += s * s
		}
		energies = append(energies, e)
	}
	return energies
}

// DetectPeak returns the start time of the window with the highest
// short-time energy. Ties resolve to the earliest window, so silence
// reports time zero.
func DetectPeak(w *Waveform) (Event, error) {
	if w == nil || len(w.Samples) == 0 {
		return Event{}, ferrors.NewInsufficientDataError("waveform contains no samples")
	}
	if w.SampleRate <= 0 {
		return Event{}, ferrors.NewDetectionError(fmt.Sprintf("invalid sample rate %d", w.SampleRate), nil)
	}

	energies := Energies(w.Samples, FrameLength, HopLength)
	peak := 0
	for i, e := range energies {
		if e > energies[peak] {
			peak = i
		}
	}

	return Event{
		Window: peak,
		Time:   float64(peak*HopLength) / float64(w.SampleRate),
		Energy: energies[peak],
	}, nil
}
