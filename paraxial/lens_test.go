package paraxial

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLens(t *testing.T, in Inputs) *Biconvex {
	t.Helper()
	l, err := NewBiconvex(in)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func TestRefractiveIndexDecreasesWithWavelength(t *testing.T) {
	prev := math.Inf(1)
	for nm := 300.0; nm <= 2000; nm += 25 {
		n := RefractiveIndex(nm * 1e-9)
		assert.Less(t, n, prev, "n(%v nm)", nm)
		assert.Greater(t, n, CauchyA)
		prev = n
	}
	assert.InDelta(t, CauchyA, RefractiveIndex(1.0), 1e-12)
	assert.InDelta(t, 1.5214, RefractiveIndex(500e-9), 1e-12)
}

func TestDefaultLens(t *testing.T) {
	l := mustLens(t, DefaultInputs())

	assert.InDelta(t, 1.5213, l.RefractiveIndex(), 1e-3)
	assert.InDelta(t, 48.784e-3, l.F(), 1e-6)
	assert.InDelta(t, 4.0, l.FNumber(), 1e-3)
	assert.InDelta(t, 80.009e-3, l.ImageDistance(), 1e-6)
	assert.InDelta(t, 1.5256e-3, l.CoCDiameter(), 1e-7)
	assert.InDelta(t, 100e-3/128, l.PixelPitch(), 1e-15)

	assert.InDelta(t, 0.125, l.ObjectDistance(), 1e-15)
	assert.InDelta(t, 0.05, l.R1(), 1e-15)
	assert.InDelta(t, -0.05, l.R2(), 1e-15)
	assert.InDelta(t, 0.005, l.Thickness(), 1e-15)
	assert.InDelta(t, 0.012195, l.Aperture(), 1e-15)
	assert.InDelta(t, 0.07, l.SensorDistance(), 1e-15)
	assert.InDelta(t, 500e-9, l.Wavelength(), 1e-20)
	assert.InDelta(t, 0.1, l.SensorSize(), 1e-15)
	assert.Equal(t, 15, l.NumRays())
	assert.Equal(t, 128, l.NumPixels())

	p := l.Parameters()
	assert.InDelta(t, l.F()*1e3, p.FocalLengthMm, 1e-12)
	assert.InDelta(t, l.CoCDiameter()*1e3, p.CoCDiameterMm, 1e-12)
	assert.InDelta(t, 0.78125, p.PixelPitchMm, 1e-12)
	assert.InDelta(t, 70, p.SensorDistanceMm, 1e-12)
}

func TestImageBehindSensor(t *testing.T) {
	in := DefaultInputs()
	in.SensorDistanceMm = 200
	l, err := NewBiconvex(in)
	assert.Nil(t, l)
	assert.ErrorIs(t, err, ErrImageBehindSensor)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrNumericDegeneracy)
}

func TestApertureTooLargeForR1(t *testing.T) {
	in := DefaultInputs()
	in.ApertureMm = 40
	_, err := NewBiconvex(in)
	assert.ErrorIs(t, err, ErrApertureTooLarge)
}

var allConfigErrors = []error{
	ErrInvalidInput,
	ErrImageBehindSensor,
	ErrApertureTooLarge,
	ErrThicknessTooLarge,
	ErrSensorTooLarge,
	ErrTooManyPixels,
}

func TestEachConstraintReportsOnlyItself(t *testing.T) {
	// A valid base with the sensor close to the lens so that changing the
	// radii does not move the image in front of the sensor.
	base := DefaultInputs()
	base.SensorDistanceMm = 30

	cases := []struct {
		name   string
		modify func(in *Inputs)
		want   error
	}{
		{"sensor behind image", func(in *Inputs) { in.SensorDistanceMm = 85 }, ErrImageBehindSensor},
		{"aperture vs R1", func(in *Inputs) { in.R1Mm = 22 }, ErrApertureTooLarge},
		{"aperture vs R2", func(in *Inputs) { in.R2Mm = 22 }, ErrApertureTooLarge},
		{"thickness vs R1", func(in *Inputs) { in.R1Mm = 30; in.ThicknessMm = 13 }, ErrThicknessTooLarge},
		{"thickness vs R2", func(in *Inputs) { in.R2Mm = 30; in.ThicknessMm = 13 }, ErrThicknessTooLarge},
		{"sensor size", func(in *Inputs) { in.SensorSizeMm = 5001 }, ErrSensorTooLarge},
		{"pixel count", func(in *Inputs) { in.NumPixels = 1501 }, ErrTooManyPixels},
		{"negative radius", func(in *Inputs) { in.R1Mm = -50 }, ErrInvalidInput},
		{"zero aperture", func(in *Inputs) { in.ApertureMm = 0 }, ErrInvalidInput},
		{"NaN wavelength", func(in *Inputs) { in.WavelengthNm = math.NaN() }, ErrInvalidInput},
		{"infinite distance", func(in *Inputs) { in.ObjectDistanceMm = math.Inf(1) }, ErrInvalidInput},
		{"no rays", func(in *Inputs) { in.NumRays = 0 }, ErrInvalidInput},
		{"no pixels", func(in *Inputs) { in.NumPixels = 0 }, ErrInvalidInput},
	}

	mustLens(t, base)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.modify(&in)
			l, err := NewBiconvex(in)
			require.Error(t, err)
			assert.Nil(t, l)
			assert.ErrorIs(t, err, ErrConfiguration)
			for _, other := range allConfigErrors {
				if other == tc.want {
					assert.ErrorIs(t, err, other)
				} else {
					assert.False(t, errors.Is(err, other), "unexpected %v", other)
				}
			}
		})
	}
}

func TestLimitsAreInclusive(t *testing.T) {
	in := DefaultInputs()
	in.SensorDistanceMm = 30
	in.SensorSizeMm = MaxSensorSizeMm
	in.NumPixels = MaxPixels
	in.ApertureMm = 25
	in.ThicknessMm = 20
	mustLens(t, in)
}

func TestLimitsAreInclusiveForAnyRadius(t *testing.T) {
	// Each lens sits exactly on the aperture and thickness limits for both surfaces.
	for i := 10; i <= 800; i++ {
		r := float64(i) / 2
		in := DefaultInputs()
		in.R1Mm = r
		in.R2Mm = r
		in.ApertureMm = r / 2
		in.ThicknessMm = 2 * r / 5
		in.ObjectDistanceMm = 10 * r
		in.SensorDistanceMm = 0
		_, err := NewBiconvex(in)
		assert.NoError(t, err, "R1 = R2 = %g mm", r)
	}
}

func TestObjectAtFocalPlane(t *testing.T) {
	l := mustLens(t, DefaultInputs())

	in := DefaultInputs()
	in.ObjectDistanceMm = l.F() * 1e3
	_, err := NewBiconvex(in)
	assert.ErrorIs(t, err, ErrImageAtInfinity)
	assert.ErrorIs(t, err, ErrNumericDegeneracy)
	assert.NotErrorIs(t, err, ErrConfiguration)

	_, err = ImageDistance(0.1, 0.1)
	assert.ErrorIs(t, err, ErrImageAtInfinity)
}

func TestZeroPowerLens(t *testing.T) {
	// A biconvex lens this thick has zero net power: the lensmaker bracket vanishes.
	n := RefractiveIndex(500e-9)
	thickness := 2 * n * 0.05 / (n - 1)

	_, err := FocalLength(n, thickness, 0.05, -0.05)
	assert.ErrorIs(t, err, ErrFocalLengthUndefined)
	assert.ErrorIs(t, err, ErrNumericDegeneracy)

	in := DefaultInputs()
	in.ThicknessMm = thickness * 1e3
	_, err = NewBiconvex(in)
	assert.ErrorIs(t, err, ErrFocalLengthUndefined)
}

func TestFocalLengthThinLensLimit(t *testing.T) {
	// T -> 0 reduces to 1/f = (n-1)(1/R1 - 1/R2).
	f, err := FocalLength(1.5, 0, 0.1, -0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, f, 1e-15)
}

// validLenses spans a range of geometries that respect every constraint.
var validLenses = []Inputs{
	DefaultInputs(),
	{ObjectDistanceMm: 125, R1Mm: 50, ThicknessMm: 5, R2Mm: 50, ApertureMm: 12.195, SensorDistanceMm: 40, WavelengthNm: 500, NumRays: 15, NumPixels: 128, SensorSizeMm: 100},
	{ObjectDistanceMm: 300, R1Mm: 80, ThicknessMm: 10, R2Mm: 60, ApertureMm: 20, SensorDistanceMm: 40, WavelengthNm: 450, NumRays: 31, NumPixels: 512, SensorSizeMm: 36},
	{ObjectDistanceMm: 500, R1Mm: 100, ThicknessMm: 3, R2Mm: 100, ApertureMm: 10, SensorDistanceMm: 60, WavelengthNm: 650, NumRays: 7, NumPixels: 256, SensorSizeMm: 24},
	{ObjectDistanceMm: 125, R1Mm: 50, ThicknessMm: 5, R2Mm: 50, ApertureMm: 12.195, SensorDistanceMm: 70, WavelengthNm: 700, NumRays: 101, NumPixels: 1500, SensorSizeMm: 50},
}

func TestTransferMatricesAreUnimodular(t *testing.T) {
	for _, in := range validLenses {
		l := mustLens(t, in)
		assert.InDelta(t, 1.0, l.ObjectToLensMatrix().Det(), 1e-12)
		assert.InDelta(t, 1.0, l.RefractionMatrix().Det(), 1e-12)
		assert.InDelta(t, 1.0, l.LensToSensorMatrix().Det(), 1e-12)
		assert.InDelta(t, 1.0, l.SystemMatrix().Det(), 1e-12)
	}
}

func TestRefractionMatrixMatchesSurfaceComposition(t *testing.T) {
	for _, in := range validLenses {
		l := mustLens(t, in)
		n := l.RefractiveIndex()
		composed := Compose(
			SurfaceRefraction(1, n, l.R1()),
			Translation(l.Thickness(), n),
			SurfaceRefraction(n, 1, l.R2()),
		)
		a := l.RefractionMatrix()
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				assert.InDelta(t, composed[r][c], a[r][c], 1e-9)
			}
		}
		assert.InDelta(t, -1/l.F(), a[0][1], 1e-12)
	}
}

func TestFreeSpaceMatrices(t *testing.T) {
	l := mustLens(t, DefaultInputs())
	assert.Equal(t, Mat2{{1, 0}, {0.125, 1}}, l.ObjectToLensMatrix())
	assert.Equal(t, Mat2{{1, 0}, {l.SensorDistance(), 1}}, l.LensToSensorMatrix())
}

func TestBlurShrinksTowardsImagePlane(t *testing.T) {
	in := DefaultInputs()
	in.SensorDistanceMm = 40
	blurred := mustLens(t, in)

	in.SensorDistanceMm = 78
	sharper := mustLens(t, in)
	assert.Less(t, MaxOffsetPixels(sharper.Trace()), MaxOffsetPixels(blurred.Trace()))
}
