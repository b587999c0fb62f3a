package psf

import (
	"errors"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ProfilePoint is one sample of a cut through the spot.
type ProfilePoint struct {
	Distance  float64 // Signed distance from the sensor center in pixels
	Intensity float64 // Relative to the brightest pixel of the spot
}

// Profile samples the spot matrix (as returned by SpotMatrix) along a line
// through the sensor center at the given angle, one sample per pixel of
// distance, from one edge of the sensor to the other.
func Profile(m [][]float64, angle float64) ([]ProfilePoint, error) {
	h, w, err := rectSize(m)
	if err != nil {
		return nil, err
	}
	if h == 0 || h != w {
		return nil, errors.New("spot matrix must be square and non-empty")
	}

	peak := 0.0
	for _, row := range m {
		for _, v := range row {
			peak = math.Max(peak, v)
		}
	}
	if peak == 0 {
		peak = 1
	}

	center := SensorCenter(h)
	half := float64(h) / 2
	n := 2*int(math.Floor(half)) + 1
	points := make([]ProfilePoint, n)
	for i := range points {
		d := float64(i) - math.Floor(half)
		x := center + d*math.Cos(angle)
		y := center + d*math.Sin(angle)
		// Pixel (row, col) has its center at (col+0.5, M-row-0.5)
		points[i] = ProfilePoint{
			Distance:  d,
			Intensity: interpolate(m, x-0.5, float64(h)-0.5-y) / peak,
		}
	}
	return points, nil
}

// interpolate performs bilinear interpolation on a square matrix at column x, row y,
// clamping to the matrix edges.
func interpolate(matrix [][]float64, x, y float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return matrix[0][0]
	}

	// Clamp to valid range
	x = math.Min(math.Max(x, 0), float64(n-1)-1e-9)
	y = math.Min(math.Max(y, 0), float64(n-1)-1e-9)

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1

	xFrac := x - float64(x0)
	yFrac := y - float64(y0)

	v0 := matrix[y0][x0]*(1-xFrac) + matrix[y0][x1]*xFrac
	v1 := matrix[y1][x0]*(1-xFrac) + matrix[y1][x1]*xFrac

	return v0*(1-yFrac) + v1*yFrac
}

// PlotProfile draws the cut through the spot with the circle of confusion
// marked by red dashed lines at plus and minus its radius.
func PlotProfile(points []ProfilePoint, cocRadius float64, wPx, hPx float64) (image.Image, error) {
	if len(points) == 0 {
		return nil, errors.New("empty profile")
	}

	p := plot.New()
	setFonts(p)
	p.Y.Min = -0.1
	p.Y.Max = 1.2

	span := points[len(points)-1].Distance - points[0].Distance
	p.Title.Text = "Cut through the spot center"
	p.X.Label.Text = "pixels from center"
	p.Y.Label.Text = "relative intensity"
	if span > 0 {
		p.X.Tick.Marker = StepTicks{Step: math.Max(1, math.Round(span/16)), Format: "%.0f"}
	}
	p.Y.Tick.Marker = StepTicks{Step: 0.2, Format: "%.1f"}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(points))
	for i, pt := range points {
		pts[i].X = pt.Distance
		pts[i].Y = pt.Intensity
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)

	for _, x := range []float64{-cocRadius, cocRadius} {
		vline, err := plotter.NewLine(plotter.XYs{{X: x, Y: -0.05}, {X: x, Y: 1.1}})
		if err != nil {
			return nil, err
		}
		vline.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		vline.Color = color.RGBA{R: 255, A: 255}
		p.Add(vline)
	}

	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	dc := draw.New(c)
	p.Draw(dc)

	return c.Image(), nil
}

// SaveProfilePlot renders the profile plot and writes it to a PNG file.
func SaveProfilePlot(filename string, points []ProfilePoint, cocRadius float64, wPx, hPx float64) error {
	img, err := PlotProfile(points, cocRadius, wPx, hPx)
	if err != nil {
		return err
	}
	return SaveImage(filename, img)
}
