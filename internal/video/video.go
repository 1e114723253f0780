// Package video decodes the input video into numbered JPEG frames and
// measures their brightness.
package video

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"gocv.io/x/gocv"

	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/util"
)

// framePattern names extracted frames.
const framePattern = "frame_%04d.jpg"

// ProgressFunc receives the number of frames written so far and the
// container's frame count estimate (0 when unknown).
type ProgressFunc func(done, total int)

// Sequence is an ordered set of frames on disk. It satisfies
// flash.FrameSequence.
type Sequence struct {
	paths []string
	fps   float64
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.paths) }

// FPS returns the source frame rate.
func (s *Sequence) FPS() float64 { return s.fps }

// Path returns the file holding frame i.
func (s *Sequence) Path(i int) string { return s.paths[i] }

// Luma returns the mean grayscale intensity of frame i in [0, 255].
func (s *Sequence) Luma(i int) (float64, error) {
	if i < 0 || i >= len(s.paths) {
		return 0, fmt.Errorf("frame index %d out of range [0,%d)", i, len(s.paths))
	}
	img := gocv.IMRead(s.paths[i], gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return 0, fmt.Errorf("unable to decode %s", s.paths[i])
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	return gray.Mean().Val1, nil
}

// Extract decodes every frame of videoPath into framesDir as
// frame_NNNN.jpg. Decoding stops at the first unreadable frame.
func Extract(ctx context.Context, videoPath, framesDir string, progress ProgressFunc) (*Sequence, error) {
	if !util.FileExists(videoPath) {
		return nil, ferrors.NewInputError(fmt.Sprintf("video file not found: %s", videoPath), nil)
	}
	if err := util.EnsureDirectory(framesDir); err != nil {
		return nil, ferrors.NewIOError(fmt.Sprintf("failed to create %s", framesDir), err)
	}

	vc, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, ferrors.NewInputError(fmt.Sprintf("unable to open video file %s", videoPath), err)
	}
	defer func() { _ = vc.Close() }()

	// Some containers report no rate here; callers fall back to ffprobe.
	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps < 0 || math.IsNaN(fps) {
		fps = 0
	}
	total := max(int(vc.Get(gocv.VideoCaptureFrameCount)), 0)

	mat := gocv.NewMat()
	defer mat.Close()

	var paths []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, ferrors.NewCancelledError()
		}
		if ok := vc.Read(&mat); !ok || mat.Empty() {
			break
		}

		path := filepath.Join(framesDir, fmt.Sprintf(framePattern, len(paths)))
		if ok := gocv.IMWrite(path, mat); !ok {
			return nil, ferrors.NewIOError(fmt.Sprintf("failed to write %s", path), nil)
		}
		paths = append(paths, path)

		if progress != nil {
			progress(len(paths), total)
		}
	}

	if len(paths) == 0 {
		return nil, ferrors.NewInputError(fmt.Sprintf("no frames could be decoded from %s", videoPath), nil)
	}

	return &Sequence{paths: paths, fps: fps}, nil
}
