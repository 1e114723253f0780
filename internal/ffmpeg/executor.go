package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/util"
)

// Progress represents demux progress information.
type Progress struct {
	Percent     float32
	Speed       float32
	ETA         time.Duration
	ElapsedSecs float64
}

// ProgressCallback is called with progress updates during extraction.
type ProgressCallback func(Progress)

var timeRegex = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.?\d*)`)

// noAudioMarkers are stderr fragments ffmpeg prints when the input has no
// audio stream to map.
var noAudioMarkers = []string{
	"matches no streams",
	"does not contain any stream",
	"Output file #0 does not contain any stream",
}

// ExtractAudio demuxes the first audio stream of params.InputPath into
// params.OutputPath. An input without audio yields an input error.
func ExtractAudio(ctx context.Context, params *ExtractParams, callback ProgressCallback) error {
	args := BuildExtractAudioArgs(params)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ferrors.NewCommandStartError("ffmpeg", err)
	}

	if err := cmd.Start(); err != nil {
		return ferrors.NewCommandStartError("ffmpeg", err)
	}

	var stderrBuilder strings.Builder
	parseProgress(stderr, &stderrBuilder, params.Duration, callback)

	err = cmd.Wait()
	return classifyExit(ctx, err, stderrBuilder.String(), params.InputPath)
}

// classifyExit maps ffmpeg's exit status and stderr to a CoreError.
func classifyExit(ctx context.Context, err error, stderr, inputPath string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ferrors.NewCancelledError()
	}
	if HasNoAudio(stderr) {
		return ferrors.NewInputError("no audio stream found in "+inputPath, err)
	}
	if strings.Contains(stderr, "No such file or directory") || strings.Contains(stderr, "Invalid data found when processing input") {
		return ferrors.NewInputError("cannot read "+inputPath, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ferrors.NewCommandFailedError("ffmpeg", exitErr.ExitCode(), lastLines(stderr, 5))
	}
	return ferrors.NewCommandWaitError("ffmpeg", err)
}

// HasNoAudio reports whether ffmpeg stderr says the input has no audio stream.
func HasNoAudio(stderr string) bool {
	for _, m := range noAudioMarkers {
		if strings.Contains(stderr, m) {
			return true
		}
	}
	return false
}

// parseProgress reads FFmpeg stderr and parses progress updates.
func parseProgress(stderr io.Reader, stderrBuilder *strings.Builder, duration float64, callback ProgressCallback) {
	reader := bufio.NewReader(stderr)
	var lineBuf strings.Builder

	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		stderrBuilder.WriteByte(b)

		// Progress lines end with \r or \n
		if b == '\r' || b == '\n' {
			line := lineBuf.String()
			lineBuf.Reset()

			if callback != nil && strings.Contains(line, "time=") {
				if progress := parseProgressLine(line, duration); progress != nil {
					callback(*progress)
				}
			}
		} else {
			lineBuf.WriteByte(b)
		}
	}
}

// parseProgressLine extracts progress information from an FFmpeg status
// line such as "size=  512kB time=00:00:03.20 bitrate= 1411.2kbits/s speed=64x".
func parseProgressLine(line string, duration float64) *Progress {
	matches := timeRegex.FindStringSubmatch(line)
	if len(matches) < 2 {
		return nil
	}
	elapsedSecs, ok := util.ParseFFmpegTime(matches[1])
	if !ok {
		return nil
	}

	var speed float32
	if idx := strings.Index(line, "speed="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+6:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t\r\n"); spaceIdx > 0 {
			remaining = remaining[:spaceIdx]
		}
		remaining = strings.TrimSuffix(remaining, "x")
		if s, err := strconv.ParseFloat(remaining, 32); err == nil {
			speed = float32(s)
		}
	}

	var percent float32
	if duration > 0 {
		percent = min(float32(elapsedSecs/duration*100), 100)
	}

	var eta time.Duration
	if speed > 0 && duration > elapsedSecs {
		eta = time.Duration((duration - elapsedSecs) / float64(speed) * float64(time.Second))
	}

	return &Progress{
		Percent:     percent,
		Speed:       speed,
		ETA:         eta,
		ElapsedSecs: elapsedSecs,
	}
}

// lastLines returns the final n non-empty lines of s.
func lastLines(s string, n int) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
