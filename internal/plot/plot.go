// Package plot renders the diagnostic PNGs written with --plot.
package plot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/five82/flashbang/internal/audio"
	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/estimate"
)

// Output file names, relative to the output directory.
const (
	BrightnessFile  = "brightness_plot.png"
	SpectrogramFile = "audio_spectrogram.png"
	CombinedFile    = "combined_plot.png"
)

// Spectrogram analysis size used for plotting.
const (
	SpectrogramNFFT = 2048
	SpectrogramHop  = 512

	MinSpectrogramHz = 20
	MaxSpectrogramHz = 16000
)

var (
	width  = 10 * vg.Inch
	height = 4 * vg.Inch

	blue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	red    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	orange = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	gray   = color.RGBA{R: 128, G: 128, B: 128, A: 160}
	dashes = []vg.Length{vg.Points(5), vg.Points(4)}
)

// Data is everything the plots draw from.
type Data struct {
	Brightness []float64
	FPS        float64
	FlashFrame int
	Baseline   float64
	Waveform   *audio.Waveform
	Estimate   estimate.Estimate
}

// WriteAll renders all three plots into outDir and returns their paths.
// Rendering stops at the first failure.
func WriteAll(outDir string, d Data) ([]string, error) {
	var written []string

	path := filepath.Join(outDir, BrightnessFile)
	if err := Brightness(path, d.Brightness, d.FPS, d.FlashFrame, d.Baseline); err != nil {
		return written, err
	}
	written = append(written, path)

	path = filepath.Join(outDir, SpectrogramFile)
	spec := audio.NewSpectrogram(d.Waveform, SpectrogramNFFT, SpectrogramHop)
	if err := Spectrogram(path, spec, d.Estimate.SoundTime); err != nil {
		return written, err
	}
	written = append(written, path)

	path = filepath.Join(outDir, CombinedFile)
	if err := Combined(path, d); err != nil {
		return written, err
	}
	written = append(written, path)

	return written, nil
}

// Brightness plots mean frame brightness against time with the flash
// marker, a "Flash Detected" label and the pre-flash baseline.
func Brightness(path string, brightness []float64, fps float64, flashFrame int, baseline float64) error {
	p, err := brightnessPlot(brightness, fps, flashFrame, baseline)
	if err != nil {
		return err
	}
	return save(p, path)
}

func brightnessPlot(brightness []float64, fps float64, flashFrame int, baseline float64) (*plot.Plot, error) {
	if len(brightness) == 0 || fps <= 0 {
		return nil, ferrors.NewDetectionError("no brightness data to plot", nil)
	}
	if flashFrame < 0 || flashFrame >= len(brightness) {
		return nil, ferrors.NewDetectionError(fmt.Sprintf("flash frame %d outside %d frames", flashFrame, len(brightness)), nil)
	}

	p := plot.New()
	p.Title.Text = "Brightness Over Time"
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Brightness"

	pts := make(plotter.XYs, len(brightness))
	for i, v := range brightness {
		pts[i].X = float64(i) / fps
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, wrap(err)
	}
	line.Color = blue
	p.Add(line)
	p.Legend.Add("Brightness", line)

	lo, hi := bounds(brightness)
	flashTime := float64(flashFrame) / fps

	marker, err := vline(flashTime, lo, hi, red)
	if err != nil {
		return nil, err
	}
	p.Add(marker)
	p.Legend.Add("Flash Time", marker)

	base, err := hline(baseline, 0, float64(len(brightness)-1)/fps, gray)
	if err != nil {
		return nil, err
	}
	p.Add(base)
	p.Legend.Add("Baseline", base)

	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: flashTime, Y: brightness[flashFrame]}},
		Labels: []string{"Flash Detected"},
	})
	if err != nil {
		return nil, wrap(err)
	}
	p.Add(label)

	return p, nil
}

// Spectrogram draws the dB spectrogram as a heat map on a log frequency
// axis limited to the audible band, with the sound marker.
func Spectrogram(path string, spec *audio.Spectrogram, soundTime float64) error {
	if spec == nil || len(spec.DB) < 2 || len(spec.Freqs) < 2 {
		return ferrors.NewDetectionError("audio too short to plot a spectrogram", nil)
	}
	lo, hi := frequencyRows(spec.Freqs, MinSpectrogramHz, MaxSpectrogramHz)
	if hi-lo < 2 {
		return ferrors.NewDetectionError(fmt.Sprintf("no spectrogram bins between %d and %d Hz",
			MinSpectrogramHz, MaxSpectrogramHz), nil)
	}
	bottom, top := spec.Freqs[lo], spec.Freqs[hi-1]

	p := plot.New()
	p.Title.Text = "Audio Spectrogram"
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Hz"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	hm := plotter.NewHeatMap(spectrogramGrid{s: spec, lo: lo, rows: hi - lo}, palette.Heat(64, 1))
	hm.Min, hm.Max = -80, 0
	p.Add(hm)

	marker, err := vline(soundTime, bottom, top, orange)
	if err != nil {
		return err
	}
	p.Add(marker)
	p.Legend.Add("Sound Time", marker)

	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: soundTime, Y: top * 0.9}},
		Labels: []string{"Explosion Detected"},
	})
	if err != nil {
		return wrap(err)
	}
	p.Add(label)

	return save(p, path)
}

// frequencyRows returns the half-open bin range [lo, hi) of ascending freqs
// that falls within [minHz, maxHz].
func frequencyRows(freqs []float64, minHz, maxHz float64) (lo, hi int) {
	lo = sort.SearchFloat64s(freqs, minHz)
	hi = sort.Search(len(freqs), func(i int) bool { return freqs[i] > maxHz })
	return lo, max(hi, lo)
}

// spectrogramGrid adapts rows [lo, lo+rows) of a Spectrogram to
// plotter.GridXYZ.
type spectrogramGrid struct {
	s    *audio.Spectrogram
	lo   int
	rows int
}

func (g spectrogramGrid) Dims() (c, r int)   { return len(g.s.Times), g.rows }
func (g spectrogramGrid) Z(c, r int) float64 { return g.s.DB[c][g.lo+r] }
func (g spectrogramGrid) X(c int) float64    { return g.s.Times[c] }
func (g spectrogramGrid) Y(r int) float64    { return g.s.Freqs[g.lo+r] }

// Combined stacks brightness and short-time audio energy on a shared time
// axis, annotated with the distance formula.
func Combined(path string, d Data) error {
	top, err := brightnessPlot(d.Brightness, d.FPS, d.FlashFrame, d.Baseline)
	if err != nil {
		return err
	}
	top.Title.Text = fmt.Sprintf("distance = delay × (331 + 0.6 × T) = %.2f s × %.1f m/s = %.1f m",
		d.Estimate.Delay, d.Estimate.SpeedOfSound, d.Estimate.Meters)

	bottom, err := energyPlot(d.Waveform, d.Estimate.SoundTime)
	if err != nil {
		return err
	}

	img := vgimg.New(width, 2*height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Points(8)}
	canvases := plot.Align([][]*plot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to create %s", path), err)
	}
	defer func() { _ = f.Close() }()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to write %s", path), err)
	}
	return f.Close()
}

func energyPlot(w *audio.Waveform, soundTime float64) (*plot.Plot, error) {
	if w == nil || len(w.Samples) == 0 || w.SampleRate <= 0 {
		return nil, ferrors.NewDetectionError("no audio data to plot", nil)
	}

	energies := audio.Energies(w.Samples, audio.FrameLength, audio.HopLength)
	pts := make(plotter.XYs, len(energies))
	for i, e := range energies {
		pts[i].X = float64(i*audio.HopLength) / float64(w.SampleRate)
		pts[i].Y = e
	}

	p := plot.New()
	p.Title.Text = "Short-Time Audio Energy"
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Energy"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, wrap(err)
	}
	line.Color = blue
	p.Add(line)
	p.Legend.Add("Energy", line)

	lo, hi := bounds(energies)
	marker, err := vline(soundTime, lo, hi, orange)
	if err != nil {
		return nil, err
	}
	p.Add(marker)
	p.Legend.Add("Sound Time", marker)

	return p, nil
}

func vline(x, y0, y1 float64, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x, Y: y0}, {X: x, Y: y1}})
	if err != nil {
		return nil, wrap(err)
	}
	l.Color = c
	l.Dashes = dashes
	return l, nil
}

func hline(y, x0, x1 float64, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return nil, wrap(err)
	}
	l.Color = c
	l.Dashes = dashes
	return l, nil
}

// bounds returns the finite min and max of values, widened when equal.
func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(width, height, path); err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to save %s", path), err)
	}
	return nil
}

func wrap(err error) error {
	return ferrors.NewDetectionError("invalid plot data", err)
}
