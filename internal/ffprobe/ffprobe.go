// Package ffprobe extracts stream information from the input video using ffprobe.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// MediaInfo describes the first video and audio streams of a file.
type MediaInfo struct {
	Duration    float64
	Width       int64
	Height      int64
	FrameRate   float64
	TotalFrames uint64
	VideoCodec  string

	HasAudio   bool
	AudioCodec string
	SampleRate int
	Channels   int
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int64  `json:"width"`
	Height       int64  `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

// Probe runs ffprobe on inputPath.
func Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ferrors.NewCancelledError()
		}
		return nil, ferrors.WrapExecError("ffprobe", err, stderr.String())
	}

	probe, err := parseFFprobeOutput(output)
	if err != nil {
		return nil, err
	}
	return extractMediaInfo(probe, inputPath)
}

// parseFFprobeOutput decodes ffprobe's JSON document.
func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, ferrors.NewJSONParseError("failed to parse ffprobe output", err)
	}
	return &result, nil
}

// extractMediaInfo picks the first video and audio streams. A file without a
// video stream is rejected; a missing audio stream is reported via HasAudio.
func extractMediaInfo(probe *ffprobeOutput, inputPath string) (*MediaInfo, error) {
	info := &MediaInfo{}

	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, ferrors.NewJSONParseError(fmt.Sprintf("invalid duration %q", probe.Format.Duration), err)
		}
		info.Duration = d
	}

	var video, audio *ffprobeStream
	for i := range probe.Streams {
		s := &probe.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if audio == nil {
				audio = s
			}
		}
	}

	if video == nil {
		return nil, ferrors.NewInputError(fmt.Sprintf("no video stream found in %s", inputPath), nil)
	}
	if video.Width <= 0 || video.Height <= 0 {
		return nil, ferrors.NewInputError(
			fmt.Sprintf("invalid dimensions in %s: %dx%d", inputPath, video.Width, video.Height), nil)
	}

	info.Width = video.Width
	info.Height = video.Height
	info.VideoCodec = video.CodecName
	info.FrameRate = ParseFrameRate(video.AvgFrameRate)
	if info.FrameRate == 0 {
		info.FrameRate = ParseFrameRate(video.RFrameRate)
	}
	if video.NbFrames != "" {
		if frames, err := strconv.ParseUint(video.NbFrames, 10, 64); err == nil {
			info.TotalFrames = frames
		}
	}
	if info.TotalFrames == 0 && info.FrameRate > 0 && info.Duration > 0 {
		info.TotalFrames = uint64(info.Duration*info.FrameRate + 0.5)
	}

	if audio != nil {
		info.HasAudio = true
		info.AudioCodec = audio.CodecName
		info.Channels = audio.Channels
		if sr, err := strconv.Atoi(audio.SampleRate); err == nil {
			info.SampleRate = sr
		}
	}

	return info, nil
}

// ParseFrameRate parses an ffprobe rational such as "30000/1001". It returns
// 0 for malformed input or a zero denominator.
func ParseFrameRate(s string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n < 0 {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d <= 0 {
		return 0
	}
	return n / d
}
