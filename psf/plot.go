// Package psf renders the sensor-plane footprint of a traced ray fan: a scatter
// diagram with the circle of confusion drawn over it, and a rasterised spot image.
package psf

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultHalfWidthPixels is the minimum distance from the center shown on each axis.
const DefaultHalfWidthPixels = 3.0

const dpi = 96

// Diagram is the scatter diagram of one ray fan on the sensor.
type Diagram struct {
	Radii     []float64 // Signed distance of each hit from the axis, in pixels
	Angles    []float64 // Display angle assigned to each hit (radians)
	CoCRadius float64   // Circle of confusion radius, in pixels
	NumPixels int       // Pixels per sensor axis
}

// DisplayAngles spreads n angles uniformly over [0, 2pi] and shuffles them so
// that consecutive hits do not line up along a spiral in the 2D view. The
// assignment is cosmetic; the model is rotationally symmetric.
func DisplayAngles(n int, rng *rand.Rand) []float64 {
	angles := make([]float64, n)
	if n == 1 {
		return angles
	}
	for i := range angles {
		angles[i] = 2 * math.Pi * float64(i) / float64(n-1)
	}
	rng.Shuffle(n, func(i, j int) { angles[i], angles[j] = angles[j], angles[i] })
	return angles
}

// SensorCenter is the coordinate of the middle of the central pixel on each axis.
func SensorCenter(numPixels int) float64 {
	return 0.5 + float64(numPixels/2)
}

// Points places each radius at its display angle around center.
func Points(radii, angles []float64, center float64) (plotter.XYs, error) {
	if len(radii) != len(angles) {
		return nil, fmt.Errorf("have %d radii but %d angles", len(radii), len(angles))
	}
	pts := make(plotter.XYs, len(radii))
	for i, r := range radii {
		pts[i].X = center + r*math.Cos(angles[i])
		pts[i].Y = center + r*math.Sin(angles[i])
	}
	return pts, nil
}

// circle returns a closed polygon approximating a circle.
func circle(cx, cy, r float64, segments int) plotter.XYs {
	pts := make(plotter.XYs, segments+1)
	for i := 0; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		pts[i].X = cx + r*math.Cos(theta)
		pts[i].Y = cy + r*math.Sin(theta)
	}
	return pts
}

// HalfWidth is the distance from the center to the axis limits: at least
// DefaultHalfWidthPixels, wider when the circle or a hit would be clipped.
func (d Diagram) HalfWidth() float64 {
	extent := d.CoCRadius
	for _, r := range d.Radii {
		extent = math.Max(extent, math.Abs(r))
	}
	if extent+0.5 <= DefaultHalfWidthPixels {
		return DefaultHalfWidthPixels
	}
	return math.Ceil(extent + 0.5)
}

func setFonts(p *plot.Plot) {
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Font.Typeface = "Liberation"
		ax.Label.TextStyle.Font.Variant = "Sans"
		ax.Label.TextStyle.Font.Size = vg.Points(12)

		ax.Tick.Label.Font.Typeface = "Liberation"
		ax.Tick.Label.Font.Variant = "Sans"
		ax.Tick.Label.Font.Size = vg.Points(10)
	}
}

// Plot builds the scatter diagram: one colored dot per hit and the circle of
// confusion outline, centered on the middle pixel of the sensor.
func (d Diagram) Plot() (*plot.Plot, error) {
	if d.NumPixels < 1 {
		return nil, errors.New("number of pixels must be positive")
	}
	center := SensorCenter(d.NumPixels)
	pts, err := Points(d.Radii, d.Angles, center)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	setFonts(p)

	half := d.HalfWidth()
	p.X.Min, p.X.Max = center-half, center+half
	p.Y.Min, p.Y.Max = center-half, center+half

	p.Title.Text = "Sensor plane with CoC and sampled points"
	p.X.Label.Text = "Pixel number along X"
	p.Y.Label.Text = "Pixel number along Y"
	step := math.Max(1, math.Round(half/3))
	p.X.Tick.Marker = StepTicks{Step: step, Format: "%.0f"}
	p.Y.Tick.Marker = StepTicks{Step: step, Format: "%.0f"}
	p.Add(plotter.NewGrid())

	coc, err := plotter.NewLine(circle(center, center, d.CoCRadius, 180))
	if err != nil {
		return nil, err
	}
	coc.Color = color.RGBA{R: 0, G: 0, B: 0, A: 255} // black outline, unfilled
	coc.Width = vg.Points(1)
	p.Add(coc)

	for i := range pts {
		s, err := plotter.NewScatter(pts[i : i+1])
		if err != nil {
			return nil, err
		}
		s.Shape = draw.CircleGlyph{}
		s.Radius = vg.Points(3)
		s.Color = plotutil.Color(i)
		p.Add(s)
	}

	return p, nil
}

// Render draws the diagram into an in-memory image of wPx x hPx pixels.
func (d Diagram) Render(wPx, hPx float64) (image.Image, error) {
	p, err := d.Plot()
	if err != nil {
		return nil, err
	}

	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	dc := draw.New(c)
	p.Draw(dc)

	return c.Image(), nil
}

// Save renders the diagram and writes it to a PNG file.
func (d Diagram) Save(filename string, wPx, hPx float64) (err error) {
	img, err := d.Render(wPx, hPx)
	if err != nil {
		return err
	}
	return SaveImage(filename, img)
}

// StepTicks is a tick marker with a fixed step between ticks.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max; v += t.Step {
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

// SaveImage writes img to a PNG file.
func SaveImage(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return png.Encode(f, img)
}
