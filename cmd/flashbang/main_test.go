package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/flashbang"
	"github.com/five82/flashbang/internal/config"
	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/reporter"
)

// execute runs the root command and returns the config it would run with.
func execute(t *testing.T, defaults *config.Config, args ...string) (*config.Config, string, error) {
	t.Helper()
	var got *config.Config
	cmd := newRootCommand(defaults, func(cfg *config.Config) error {
		got = cfg
		return nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return got, out.String(), err
}

func tempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blast.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0644))
	return path
}

func TestFlagsOverrideDefaults(t *testing.T) {
	video := tempVideo(t)
	out := t.TempDir()

	cfg, _, err := execute(t, config.NewConfig("video.mp4", "output"),
		"--video", video,
		"--lat", "50.4501",
		"--lon", "30.5234",
		"--temp", "2",
		"--keep",
		"--plot",
		"--outdir", out,
		"-v",
		"--json",
		"--no-log",
		"--metrics",
		"--weather-timeout", "4s",
	)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, video, cfg.VideoPath)
	assert.Equal(t, out, cfg.OutputDir)
	assert.Equal(t, 50.4501, cfg.Latitude)
	assert.Equal(t, 30.5234, cfg.Longitude)
	assert.Equal(t, 2, cfg.WeatherDate.Offset())
	assert.True(t, cfg.KeepFiles && cfg.Plot && cfg.Verbose && cfg.JSON && cfg.NoLog && cfg.Metrics)
	assert.Equal(t, 4*time.Second, cfg.WeatherTimeout)
}

func TestTempAcceptsDayFirstDate(t *testing.T) {
	cfg, _, err := execute(t, config.NewConfig(tempVideo(t), t.TempDir()), "--temp", "09/03/2024")
	require.NoError(t, err)
	assert.True(t, cfg.WeatherDate.IsExplicit())
	assert.Equal(t, "2024-03-09", cfg.WeatherDate.String())
}

func TestInvalidTempIsArgumentError(t *testing.T) {
	cfg, _, err := execute(t, config.NewConfig(tempVideo(t), t.TempDir()), "--temp", "yesterday-ish")
	assert.Nil(t, cfg)
	assert.True(t, ferrors.IsKind(err, ferrors.KindArgument), "got %v", err)
}

func TestOutOfRangeLatitudeIsArgumentError(t *testing.T) {
	_, _, err := execute(t, config.NewConfig(tempVideo(t), t.TempDir()), "--lat", "123")
	assert.True(t, ferrors.IsKind(err, ferrors.KindArgument), "got %v", err)
}

func TestMissingVideoIsInputError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.mp4")
	_, _, err := execute(t, config.NewConfig(missing, t.TempDir()))
	assert.True(t, ferrors.IsKind(err, ferrors.KindInput), "got %v", err)
}

func TestPositionalArgsRejected(t *testing.T) {
	_, _, err := execute(t, config.NewConfig(tempVideo(t), t.TempDir()), "extra")
	assert.Error(t, err)
}

func TestVersionFlag(t *testing.T) {
	cfg, out, err := execute(t, config.NewConfig("video.mp4", "output"), "--version")
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Equal(t, "flashbang version "+flashbang.Version, strings.TrimSpace(out))
}

func TestDefaultTempFromEnvironment(t *testing.T) {
	defaults := config.NewConfig(tempVideo(t), t.TempDir())
	defaults.WeatherDate = config.OffsetDays(5)

	cfg, _, err := execute(t, defaults)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.WeatherDate.Offset())
}

func TestReporterMirrorsEventsToRunLog(t *testing.T) {
	cfg := config.NewConfig("video.mp4", "output")
	var logFile bytes.Buffer

	rep := newReporter(cfg, "run-7", &logFile)
	_, ok := rep.(*reporter.CompositeReporter)
	require.True(t, ok, "got %T", rep)

	rep.Warning("sound peak precedes flash")
	line := strings.TrimSpace(logFile.String())
	assert.Contains(t, line, `"type":"warning"`)
	assert.Contains(t, line, `"message":"sound peak precedes flash"`)
	assert.Contains(t, line, `"run_id":"run-7"`)
}

func TestReporterWithoutRunLog(t *testing.T) {
	cfg := config.NewConfig("video.mp4", "output")
	cfg.JSON = true

	_, ok := newReporter(cfg, "run-7", nil).(*reporter.JSONReporter)
	assert.True(t, ok)
}
