package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// dBFloor is the lowest level kept in a spectrogram, relative to its peak.
const dBFloor = -80.0

// Spectrogram is a magnitude STFT in decibels relative to its loudest bin.
type Spectrogram struct {
	Times []float64   // start time of each frame, seconds
	Freqs []float64   // centre frequency of each bin, Hz
	DB    [][]float64 // DB[frame][bin], in [dBFloor, 0]
}

// NewSpectrogram computes a Hann-windowed short-time Fourier transform of w.
// A waveform shorter than nfft yields one zero-padded frame.
func NewSpectrogram(w *Waveform, nfft, hop int) *Spectrogram {
	if w == nil || len(w.Samples) == 0 || nfft <= 0 || hop <= 0 || w.SampleRate <= 0 {
		return &Spectrogram{}
	}

	fft := fourier.NewFFT(nfft)
	bins := nfft/2 + 1

	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = fft.Freq(k) * float64(w.SampleRate)
	}

	var starts []int
	for start := 0; start+nfft <= len(w.Samples); start += hop {
		starts = append(starts, start)
	}
	if len(starts) == 0 {
		starts = []int{0}
	}

	frame := make([]float64, nfft)
	coeffs := make([]complex128, bins)
	mags := make([][]float64, len(starts))
	times := make([]float64, len(starts))
	var ref float64

	for i, start := range starts {
		for j := range frame {
			frame[j] = 0
		}
		copy(frame, w.Samples[start:min(start+nfft, len(w.Samples))])
		window.Hann(frame)
		coeffs = fft.Coefficients(coeffs, frame)

		row := make([]float64, bins)
		for k, c := range coeffs {
			m := math.Hypot(real(c), imag(c))
			row[k] = m
			ref = math.Max(ref, m)
		}
		mags[i] = row
		times[i] = float64(start) / float64(w.SampleRate)
	}

	for _, row := range mags {
		for k, m := range row {
			row[k] = toDB(m, ref)
		}
	}

	return &Spectrogram{Times: times, Freqs: freqs, DB: mags}
}

func toDB(mag, ref float64) float64 {
	if ref <= 0 || mag <= 0 {
		return dBFloor
	}
	return math.Max(20*math.Log10(mag/ref), dBFloor)
}
