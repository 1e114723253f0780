// Package audio loads extracted waveforms and analyses their loudness.
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// Waveform is a mono signal with samples in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Load decodes a PCM WAV file at its native sample rate. Multichannel input
// is averaged down to mono.
func Load(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.NewIOError(fmt.Sprintf("failed to open audio file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, ferrors.NewDetectionError(fmt.Sprintf("%s is not a valid WAV file", path), dec.Err())
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, ferrors.NewDetectionError(fmt.Sprintf("failed to decode %s", path), err)
	}

	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels < 1 {
		channels = 1
	}

	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth < 8 {
		return nil, ferrors.NewDetectionError(fmt.Sprintf("unsupported bit depth %d in %s", bitDepth, path), nil)
	}

	return &Waveform{
		Samples:    downmix(buf.Data, channels, float64(int64(1)<<(bitDepth-1))),
		SampleRate: int(dec.SampleRate),
	}, nil
}

// downmix averages interleaved integer samples into normalised mono floats.
func downmix(data []int, channels int, scale float64) []float64 {
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		out[i] = sum / float64(channels) / scale
	}
	return out
}
