package psf

import (
	"errors"
	"image"
	"math"
)

// SpotMatrix bins the hits onto the M x M sensor grid. Each radius stands for
// a ring of light around the axis (the lens is rotationally symmetric) and is
// swept through samplesPerRing angles, each carrying an equal share of the
// ring's weight. Row 0 is the top of the sensor.
func SpotMatrix(radii []float64, numPixels, samplesPerRing int) ([][]float64, error) {
	if numPixels < 1 {
		return nil, errors.New("number of pixels must be positive")
	}
	if samplesPerRing < 1 {
		return nil, errors.New("samples per ring must be positive")
	}

	m := make([][]float64, numPixels)
	for row := range m {
		m[row] = make([]float64, numPixels)
	}

	center := SensorCenter(numPixels)
	weight := 1.0 / float64(samplesPerRing)
	for _, r := range radii {
		for k := 0; k < samplesPerRing; k++ {
			theta := 2 * math.Pi * float64(k) / float64(samplesPerRing)
			col := int(math.Floor(center + r*math.Cos(theta)))
			row := numPixels - 1 - int(math.Floor(center+r*math.Sin(theta)))
			if col < 0 || col >= numPixels || row < 0 || row >= numPixels {
				continue // fell off the sensor
			}
			m[row][col] += weight
		}
	}
	return m, nil
}

// SpotImage renders the binned hits as an 8-bit image, stretched so the
// brightest pixel is white.
func SpotImage(radii []float64, numPixels, samplesPerRing int) (*image.Gray, error) {
	m, err := SpotMatrix(radii, numPixels, samplesPerRing)
	if err != nil {
		return nil, err
	}
	return MatrixToGray(m)
}

// MatrixToGray stretches the finite values of m linearly from black at the
// smallest to white at the largest. Non-finite values are drawn black.
func MatrixToGray(m [][]float64) (*image.Gray, error) {
	h, w, err := rectSize(m)
	if err != nil {
		return nil, err
	}
	if h == 0 || w == 0 {
		return nil, errors.New("empty matrix")
	}

	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range m {
		for _, v := range row {
			if finite(v) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	if lo > hi {
		return nil, errors.New("matrix has no finite values")
	}
	span := hi - lo
	if span == 0 {
		span = 1 // flat image
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y, row := range m {
		for x, v := range row {
			if finite(v) {
				img.Pix[y*img.Stride+x] = uint8(math.Round((v - lo) / span * 255))
			}
		}
	}
	return img, nil
}
