package paraxial

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hit is where one sampled ray lands on the sensor plane.
type Hit struct {
	Angle        float64 // Launch angle at the point object (radians)
	Offset       float64 // Signed distance from the optical axis at the sensor (m)
	OffsetPixels float64 // Offset divided by the pixel pitch
}

// SampleAngles returns n values uniformly spaced over [lo, hi], both ends
// included. A single sample is placed at lo.
func SampleAngles(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// MaxAngle is the half-angle subtended by the aperture as seen from the point object.
func (l *Biconvex) MaxAngle() float64 {
	return math.Atan(0.5 * l.od / l.d)
}

// Propagate carries r from the object plane through both lens surfaces to the
// sensor plane and returns the state vector there.
func (l *Biconvex) Propagate(r Ray) Vec2 {
	v := l.objectToLens.MulVec(r.Vector()) // point object -> surface 1
	v = l.refraction.MulVec(v)             // surface 1 -> surface 2
	return l.lensToSensor.MulVec(v)        // surface 2 -> sensor plane
}

// Trace launches NumRays rays from the on-axis point object (in air) at angles
// spanning the aperture and returns where each lands on the sensor.
func (l *Biconvex) Trace() []Hit {
	alphaMax := l.MaxAngle()
	alphas := SampleAngles(-alphaMax, alphaMax, l.numRays)

	hits := make([]Hit, len(alphas))
	for i, alpha := range alphas {
		vs := l.Propagate(NewRay(0, alpha, 1))
		hits[i] = Hit{
			Angle:        alpha,
			Offset:       vs[1],
			OffsetPixels: vs[1] / l.deltaH,
		}
	}
	return hits
}

// CoCRadiusPixels is the circle of confusion radius in units of the pixel pitch.
func (l *Biconvex) CoCRadiusPixels() float64 {
	return 0.5 * l.dCoC / l.deltaH
}

// OffsetsPixels extracts the sensor offsets, in pixels, from hits.
func OffsetsPixels(hits []Hit) []float64 {
	radii := make([]float64, len(hits))
	for i, h := range hits {
		radii[i] = h.OffsetPixels
	}
	return radii
}

// MaxOffsetPixels returns the largest distance from the axis among hits, in pixels.
func MaxOffsetPixels(hits []Hit) float64 {
	if len(hits) == 0 {
		return 0
	}
	radii := OffsetsPixels(hits)
	for i := range radii {
		radii[i] = math.Abs(radii[i])
	}
	return floats.Max(radii)
}
