// Package ffmpeg runs the audio demux step and reports its progress.
package ffmpeg

import "strconv"

// AudioCodec is the PCM format written for analysis.
const AudioCodec = "pcm_s16le"

// ExtractParams describes a single audio extraction.
type ExtractParams struct {
	InputPath  string
	OutputPath string
	// Duration of the input in seconds, used for percent complete. Zero
	// disables percentage reporting.
	Duration float64
	// SampleRate resamples the output when positive; otherwise the source
	// rate is kept.
	SampleRate int
}

// BuildExtractAudioArgs returns the ffmpeg arguments that decode the first
// audio stream of the input to mono 16-bit PCM WAV, overwriting the output.
func BuildExtractAudioArgs(p *ExtractParams) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", p.InputPath,
		"-vn",
		"-map", "0:a:0",
		"-ac", "1",
		"-c:a", AudioCodec,
	}
	if p.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(p.SampleRate))
	}
	return append(args, p.OutputPath)
}
