package psf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MaxSigmaPixels is the widest detector blur accepted, in pixels.
const MaxSigmaPixels = 100.0

// CheckSigma returns an error unless sigma is a usable blur width: finite and
// in [0, MaxSigmaPixels].
func CheckSigma(sigma float64) error {
	if !(sigma >= 0 && sigma <= MaxSigmaPixels) {
		return fmt.Errorf("blur sigma must be between 0 and %g pixels, got %g", MaxSigmaPixels, sigma)
	}
	return nil
}

// GaussianKernel returns a normalized (2k+1)x(2k+1) Gaussian with k = ceil(3*sigma).
func GaussianKernel(sigma float64) ([][]float64, error) {
	if err := CheckSigma(sigma); err != nil {
		return nil, err
	}
	if sigma == 0 {
		return nil, errors.New("sigma must be positive")
	}
	return gaussian(sigma, halfWidth(sigma)), nil
}

func halfWidth(sigma float64) int {
	return int(math.Ceil(3 * sigma))
}

// gaussian samples the Gaussian of width sigma out to hw pixels from the
// center. The weights are normalized over the full 3 sigma support, so a
// kernel cut short at hw keeps the weight of every tap it does include.
func gaussian(sigma float64, hw int) [][]float64 {
	tap := func(i int) float64 {
		return math.Exp(-float64(i*i) / (2 * sigma * sigma))
	}
	sum1D := 0.0
	for i := -halfWidth(sigma); i <= halfWidth(sigma); i++ {
		sum1D += tap(i)
	}
	norm := sum1D * sum1D

	kernel := make([][]float64, 2*hw+1)
	for row := range kernel {
		kernel[row] = make([]float64, 2*hw+1)
		for col := range kernel[row] {
			kernel[row][col] = tap(row-hw) * tap(col-hw) / norm
		}
	}
	return kernel
}

// Smooth blurs m with a Gaussian of the given width (in pixels) to mimic the
// spread of light across neighboring detector pixels. Light blurred past the
// edge of the sensor is lost. sigma == 0 returns a copy of m.
func Smooth(m [][]float64, sigma float64) ([][]float64, error) {
	h, w, err := rectSize(m)
	if err != nil {
		return nil, err
	}
	if h == 0 || w == 0 {
		return nil, errors.New("empty matrix")
	}
	if err := CheckSigma(sigma); err != nil {
		return nil, err
	}
	if sigma == 0 {
		out := make([][]float64, h)
		for y := range m {
			out[y] = append([]float64(nil), m[y]...)
		}
		return out, nil
	}

	// Taps further out than the matrix is wide never reach another pixel.
	hw := min(halfWidth(sigma), max(h, w)-1)
	return convolveSame(m, gaussian(sigma, hw)), nil
}

// convolveSame is a zero-padded linear convolution via 2D FFT, cropped to the
// size of m. The kernel is square with odd size and its center is the origin.
func convolveSame(m, kernel [][]float64) [][]float64 {
	h, w := len(m), len(m[0])
	k := len(kernel)
	grid := newSpectrumGrid(h+k-1, w+k-1)

	img := grid.load(m)
	ker := grid.load(kernel)
	grid.transform(img, true)
	grid.transform(ker, true)
	for i := range img {
		img[i] *= ker[i]
	}
	grid.transform(img, false)

	// The inverse transform is unnormalized and scales by the grid size.
	scale := float64(len(img))
	off := k / 2
	out := make([][]float64, h)
	for y := range out {
		out[y] = make([]float64, w)
		for x := range out[y] {
			v := real(img[(y+off)*grid.cols+x+off]) / scale
			if math.Abs(v) < 1e-15 {
				v = 0
			}
			out[y][x] = v
		}
	}
	return out
}

// spectrumGrid is a row-major complex grid padded to powers of two, with
// one FFT plan per axis.
type spectrumGrid struct {
	rows, cols int
	rowFFT     *fourier.CmplxFFT
	colFFT     *fourier.CmplxFFT
}

func newSpectrumGrid(minRows, minCols int) spectrumGrid {
	rows, cols := nextPow2(minRows), nextPow2(minCols)
	return spectrumGrid{
		rows:   rows,
		cols:   cols,
		rowFFT: fourier.NewCmplxFFT(cols),
		colFFT: fourier.NewCmplxFFT(rows),
	}
}

// load copies m into the top-left corner of a zeroed grid.
func (g spectrumGrid) load(m [][]float64) []complex128 {
	data := make([]complex128, g.rows*g.cols)
	for y, row := range m {
		for x, v := range row {
			data[y*g.cols+x] = complex(v, 0)
		}
	}
	return data
}

// transform runs the 2D FFT in place: forward gives coefficients, otherwise
// the (unnormalized) sequence.
func (g spectrumGrid) transform(data []complex128, forward bool) {
	apply := func(plan *fourier.CmplxFFT, line []complex128) {
		if forward {
			plan.Coefficients(line, line)
		} else {
			plan.Sequence(line, line)
		}
	}

	for y := 0; y < g.rows; y++ {
		apply(g.rowFFT, data[y*g.cols:(y+1)*g.cols])
	}

	col := make([]complex128, g.rows)
	for x := 0; x < g.cols; x++ {
		for y := range col {
			col[y] = data[y*g.cols+x]
		}
		apply(g.colFFT, col)
		for y, v := range col {
			data[y*g.cols+x] = v
		}
	}
}

func rectSize(m [][]float64) (h, w int, err error) {
	h = len(m)
	if h == 0 {
		return 0, 0, nil
	}
	w = len(m[0])
	for _, row := range m[1:] {
		if len(row) != w {
			return 0, 0, errors.New("ragged matrix")
		}
	}
	return h, w, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
