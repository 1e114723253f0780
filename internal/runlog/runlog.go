// Package runlog appends estimation results to the CSV log and removes
// intermediate files after a run.
package runlog

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/util"
)

// TimestampLayout formats the Timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the fixed column order of the CSV log.
var Header = []string{
	"Timestamp", "Video File", "Flash Time", "Sound Time",
	"Temperature (C)", "Distance (m)", "Latitude", "Longitude",
	"Weather Date", "Keep Files",
}

// Record is one row of the CSV log.
type Record struct {
	Timestamp    time.Time
	VideoFile    string
	FlashTime    float64
	SoundTime    float64
	TemperatureC float64
	DistanceM    float64
	Latitude     float64
	Longitude    float64
	WeatherDate  string
	KeepFiles    bool
}

// Row renders the record in Header order.
func (r Record) Row() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		r.VideoFile,
		formatFloat(r.FlashTime),
		formatFloat(r.SoundTime),
		formatFloat(r.TemperatureC),
		formatFloat(r.DistanceM),
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		r.WeatherDate,
		formatBool(r.KeepFiles),
	}
}

// formatFloat writes the shortest representation, keeping a trailing ".0"
// on whole numbers so rows match logs written by earlier releases.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !math.IsInf(v, 0) && !math.IsNaN(v) && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Append adds rec to the CSV log at path, writing the header first when the
// file does not exist yet. Existing rows are never rewritten.
func Append(path string, rec Record) error {
	if err := util.EnsureDirectory(filepath.Dir(path)); err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to create directory for %s", path), err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to stat %s", path), err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return ferrors.NewIOError("failed to write CSV header", err)
		}
	}
	if err := w.Write(rec.Row()); err != nil {
		return ferrors.NewIOError("failed to write CSV row", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to flush %s", path), err)
	}
	return f.Close()
}

// CleanupResult lists what Cleanup removed.
type CleanupResult struct {
	FramesRemoved int
	DirRemoved    bool
	AudioRemoved  bool
}

// Cleanup deletes the given frame files and the extracted audio, then
// removes framesDir if nothing else is left in it. Missing paths are
// skipped. Every removal is attempted even when one fails; the first error
// is returned.
func Cleanup(framesDir string, frames []string, audioPath string) (CleanupResult, error) {
	var res CleanupResult
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, path := range frames {
		if !util.FileExists(path) {
			continue
		}
		if err := util.RemovePath(path); err != nil {
			keep(ferrors.NewIOError(fmt.Sprintf("failed to remove %s", path), err))
			continue
		}
		res.FramesRemoved++
	}

	if util.DirectoryExists(framesDir) {
		entries, err := os.ReadDir(framesDir)
		switch {
		case err != nil:
			keep(ferrors.NewIOError(fmt.Sprintf("failed to list %s", framesDir), err))
		case len(entries) == 0:
			if err := os.Remove(framesDir); err != nil {
				keep(ferrors.NewIOError(fmt.Sprintf("failed to remove %s", framesDir), err))
			} else {
				res.DirRemoved = true
			}
		}
	}

	if util.FileExists(audioPath) {
		if err := util.RemovePath(audioPath); err != nil {
			keep(ferrors.NewIOError(fmt.Sprintf("failed to remove %s", audioPath), err))
		} else {
			res.AudioRemoved = true
		}
	}

	return res, firstErr
}
