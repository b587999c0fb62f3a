// Package paraxial models the first-order (paraxial) optics of a single biconvex
// lens imaging an on-axis point source onto a sensor plane. Rays are propagated
// with 2x2 ray-transfer (ABCD) matrices and the defocus blur is summarised by the
// circle of confusion.
package paraxial

import (
	"fmt"
	"log/slog"
	"math"
)

// Cauchy coefficients of a common crown glass (BK7-like): n = A + B/lambda^2,
// lambda in micrometers.
const (
	CauchyA = 1.5046
	CauchyB = 0.00420 // um^2
)

// Limits of the regime where the paraxial model is trusted.
const (
	MaxApertureToRadius  = 0.5
	MaxThicknessToRadius = 0.4
	MaxSensorSizeMm      = 5000.0
	MaxPixels            = 1500
)

const (
	mmToM = 1e-3
	nmToM = 1e-9
)

// limitTolerance absorbs rounding so that a value exactly on a limit passes.
const limitTolerance = 1e-12

// Inputs holds the raw lens and sensor parameters in the caller's units.
type Inputs struct {
	ObjectDistanceMm float64 // D: point source to front surface
	R1Mm             float64 // Front surface radius (object side)
	ThicknessMm      float64 // T: center thickness
	R2Mm             float64 // Rear surface radius, given positive for a biconvex lens
	ApertureMm       float64 // OD: aperture diameter
	SensorDistanceMm float64 // D2: rear surface to sensor plane
	WavelengthNm     float64
	NumRays          int     // N: rays sampled across the aperture
	NumPixels        int     // M: pixels per sensor axis
	SensorSizeMm     float64 // h: sensor is h x h
}

// DefaultInputs returns the parameters of the reference f/4 configuration.
func DefaultInputs() Inputs {
	return Inputs{
		ObjectDistanceMm: 125,
		R1Mm:             50,
		ThicknessMm:      5,
		R2Mm:             50,
		ApertureMm:       12.195,
		SensorDistanceMm: 70,
		WavelengthNm:     500,
		NumRays:          15,
		NumPixels:        128,
		SensorSizeMm:     100,
	}
}

// Biconvex is a validated lens model. It is read-only after construction and
// safe to share between goroutines.
type Biconvex struct {
	in Inputs // as given, used for the limit checks

	// Inputs converted to meters. r2 carries the biconvex sign convention (negative).
	d, r1, t, r2, od, d2, lambda, h float64
	numRays, numPixels              int

	// Derived parameters
	n      float64 // refractive index
	f      float64 // focal length
	fN     float64 // f-number
	dImg   float64 // on-axis image distance of the point object
	dCoC   float64 // circle of confusion diameter at the sensor
	deltaH float64 // pixel pitch

	objectToLens Mat2
	refraction   Mat2
	lensToSensor Mat2
}

// NewBiconvex converts the inputs to SI units, derives the secondary optical
// parameters and checks that the configuration respects the paraxial limits.
// The first violated constraint is returned as an error wrapping
// ErrConfiguration or ErrNumericDegeneracy; no lens is returned in that case.
func NewBiconvex(in Inputs) (*Biconvex, error) {
	if err := checkInputs(in); err != nil {
		return nil, err
	}

	l := &Biconvex{
		in:        in,
		d:         in.ObjectDistanceMm * mmToM,
		r1:        in.R1Mm * mmToM,
		t:         in.ThicknessMm * mmToM,
		r2:        -in.R2Mm * mmToM, // negative: rear surface curves the other way
		od:        in.ApertureMm * mmToM,
		d2:        in.SensorDistanceMm * mmToM,
		lambda:    in.WavelengthNm * nmToM,
		h:         in.SensorSizeMm * mmToM,
		numRays:   in.NumRays,
		numPixels: in.NumPixels,
	}

	var err error
	l.n = RefractiveIndex(l.lambda)
	l.f, err = FocalLength(l.n, l.t, l.r1, l.r2)
	if err != nil {
		return nil, err
	}
	l.fN = l.f / l.od
	l.dImg, err = ImageDistance(l.d, l.f)
	if err != nil {
		return nil, err
	}
	l.dCoC = l.od * math.Abs(1-l.d2/l.dImg)
	l.deltaH = l.h / float64(l.numPixels)

	if err := l.validate(); err != nil {
		return nil, err
	}

	l.objectToLens = Translation(l.d, 1)
	l.refraction = Mat2{
		{1 + l.t*(l.n-1)/(l.n*l.r2), -1 / l.f},
		{l.t / l.n, 1 - l.t*(l.n-1)/(l.n*l.r1)},
	}
	l.lensToSensor = Translation(l.d2, 1)
	return l, nil
}

func checkInputs(in Inputs) error {
	values := []struct {
		name   string
		v      float64
		zeroOK bool
	}{
		{"object distance", in.ObjectDistanceMm, false},
		{"R1", in.R1Mm, false},
		{"thickness", in.ThicknessMm, true},
		{"R2", in.R2Mm, false},
		{"aperture", in.ApertureMm, false},
		{"sensor distance", in.SensorDistanceMm, true},
		{"wavelength", in.WavelengthNm, false},
		{"sensor size", in.SensorSizeMm, false},
	}
	for _, p := range values {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, p.name)
		}
		if p.v < 0 || (p.v == 0 && !p.zeroOK) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidInput, p.name, p.v)
		}
	}
	if in.NumRays < 1 {
		return fmt.Errorf("%w: number of rays must be at least 1, got %d", ErrInvalidInput, in.NumRays)
	}
	if in.NumPixels < 1 {
		return fmt.Errorf("%w: number of pixels must be at least 1, got %d", ErrInvalidInput, in.NumPixels)
	}
	return nil
}

// exceeds reports whether v is above limit by more than rounding error.
func exceeds(v, limit float64) bool {
	return v > limit*(1+limitTolerance)
}

// validate checks the constraints in a fixed order and reports the first
// violation. The geometric limits are compared in the caller's millimeters.
func (l *Biconvex) validate() error {
	in := l.in
	if exceeds(l.d2, l.dImg) {
		return fmt.Errorf("%w (D2 = %.3f mm, image at %.3f mm)", ErrImageBehindSensor, l.d2/mmToM, l.dImg/mmToM)
	}
	if exceeds(in.ApertureMm, MaxApertureToRadius*in.R1Mm) {
		return fmt.Errorf("%w (OD = %.3f mm exceeds %.3f mm for R1)", ErrApertureTooLarge, in.ApertureMm, MaxApertureToRadius*in.R1Mm)
	}
	if exceeds(in.ApertureMm, MaxApertureToRadius*in.R2Mm) {
		return fmt.Errorf("%w (OD = %.3f mm exceeds %.3f mm for R2)", ErrApertureTooLarge, in.ApertureMm, MaxApertureToRadius*in.R2Mm)
	}
	if exceeds(in.ThicknessMm, MaxThicknessToRadius*in.R1Mm) {
		return fmt.Errorf("%w (T = %.3f mm exceeds %.3f mm for R1)", ErrThicknessTooLarge, in.ThicknessMm, MaxThicknessToRadius*in.R1Mm)
	}
	if exceeds(in.ThicknessMm, MaxThicknessToRadius*in.R2Mm) {
		return fmt.Errorf("%w (T = %.3f mm exceeds %.3f mm for R2)", ErrThicknessTooLarge, in.ThicknessMm, MaxThicknessToRadius*in.R2Mm)
	}
	if exceeds(in.SensorSizeMm, MaxSensorSizeMm) {
		return fmt.Errorf("%w (h = %.1f mm, limit %.0f mm)", ErrSensorTooLarge, in.SensorSizeMm, MaxSensorSizeMm)
	}
	if l.numPixels > MaxPixels {
		return fmt.Errorf("%w (M = %d, limit %d)", ErrTooManyPixels, l.numPixels, MaxPixels)
	}
	return nil
}

// RefractiveIndex evaluates the two-term Cauchy relation for a wavelength in meters.
func RefractiveIndex(lambda float64) float64 {
	lambdaUm := lambda * 1e6
	return CauchyA + CauchyB/(lambdaUm*lambdaUm)
}

// FocalLength solves the thick-lens lensmaker equation
//
//	1/f = (n-1)[1/R1 - 1/R2 + (n-1)T/(n R1 R2)]
//
// with R2 already carrying its sign. All lengths in meters.
func FocalLength(n, t, r1, r2 float64) (float64, error) {
	invF := (n - 1) * (1.0/r1 - 1.0/r2 + (n-1)*t/(n*r1*r2))
	scale := math.Abs(n-1) * (1/math.Abs(r1) + 1/math.Abs(r2))
	if math.IsNaN(invF) || math.IsInf(invF, 0) || math.Abs(invF) <= 1e-12*scale {
		return 0, fmt.Errorf("%w (n = %.4f, T = %g m, R1 = %g m, R2 = %g m)", ErrFocalLengthUndefined, n, t, r1, r2)
	}
	return 1 / invF, nil
}

// ImageDistance returns the conjugate image distance D*f/(D-f) of a point at
// distance d in front of a lens of focal length f.
func ImageDistance(d, f float64) (float64, error) {
	if math.Abs(d-f) <= 1e-12*math.Max(math.Abs(d), math.Abs(f)) {
		return 0, fmt.Errorf("%w (D = f = %g m)", ErrImageAtInfinity, f)
	}
	return d * f / (d - f), nil
}

// RefractiveIndex is the index of the glass at the lens wavelength.
func (l *Biconvex) RefractiveIndex() float64 { return l.n }

// F is the focal length in meters.
func (l *Biconvex) F() float64 { return l.f }

// FNumber is the focal length over the aperture.
func (l *Biconvex) FNumber() float64 { return l.fN }

// ImageDistance is the distance in meters behind the lens at which the point is in focus.
func (l *Biconvex) ImageDistance() float64 { return l.dImg }

// CoCDiameter is the circle of confusion diameter at the sensor in meters.
func (l *Biconvex) CoCDiameter() float64 { return l.dCoC }

// PixelPitch is the sensor pixel size in meters.
func (l *Biconvex) PixelPitch() float64 { return l.deltaH }

// The inputs in meters. R2 is negative.

func (l *Biconvex) ObjectDistance() float64 { return l.d }
func (l *Biconvex) R1() float64             { return l.r1 }
func (l *Biconvex) R2() float64             { return l.r2 }
func (l *Biconvex) Thickness() float64      { return l.t }
func (l *Biconvex) Aperture() float64       { return l.od }
func (l *Biconvex) SensorDistance() float64 { return l.d2 }
func (l *Biconvex) Wavelength() float64     { return l.lambda }
func (l *Biconvex) SensorSize() float64     { return l.h }
func (l *Biconvex) NumRays() int            { return l.numRays }
func (l *Biconvex) NumPixels() int          { return l.numPixels }

// ObjectToLensMatrix propagates from the point object to the front surface.
func (l *Biconvex) ObjectToLensMatrix() Mat2 { return l.objectToLens }

// RefractionMatrix maps a ray at the front surface to the ray leaving the rear
// surface: refraction at R1, transfer through the glass, refraction at R2.
// Its off-diagonal term is -1/f.
func (l *Biconvex) RefractionMatrix() Mat2 { return l.refraction }

// LensToSensorMatrix propagates from the rear surface to the sensor plane.
func (l *Biconvex) LensToSensorMatrix() Mat2 { return l.lensToSensor }

// SystemMatrix is the whole object-to-sensor transfer.
func (l *Biconvex) SystemMatrix() Mat2 {
	return Compose(l.objectToLens, l.refraction, l.lensToSensor)
}

// Parameters summarises the derived lens parameters, lengths in millimeters.
type Parameters struct {
	RefractiveIndex  float64
	FocalLengthMm    float64
	FNumber          float64
	ImageDistanceMm  float64
	CoCDiameterMm    float64
	PixelPitchMm     float64
	SensorDistanceMm float64
	ObjectDistanceMm float64
}

// Parameters returns the derived parameters with lengths in millimeters.
func (l *Biconvex) Parameters() Parameters {
	return Parameters{
		RefractiveIndex:  l.n,
		FocalLengthMm:    l.f / mmToM,
		FNumber:          l.fN,
		ImageDistanceMm:  l.dImg / mmToM,
		CoCDiameterMm:    l.dCoC / mmToM,
		PixelPitchMm:     l.deltaH / mmToM,
		SensorDistanceMm: l.d2 / mmToM,
		ObjectDistanceMm: l.d / mmToM,
	}
}

// LogValue implements slog.LogValuer.
func (l *Biconvex) LogValue() slog.Value {
	p := l.Parameters()
	return slog.GroupValue(
		slog.Float64("n", p.RefractiveIndex),
		slog.Float64("f_mm", p.FocalLengthMm),
		slog.Float64("f_number", p.FNumber),
		slog.Float64("image_distance_mm", p.ImageDistanceMm),
		slog.Float64("coc_diameter_mm", p.CoCDiameterMm),
		slog.Float64("pixel_pitch_mm", p.PixelPitchMm),
	)
}
