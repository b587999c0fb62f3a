package paraxial

// Ray is a geometric ray at one longitudinal position along the optical axis.
type Ray struct {
	Offset float64 // Distance from the optical axis (m), 0 for a point on the axis
	Angle  float64 // Angle with respect to the optical axis (radians, paraxial)
	Index  float64 // Refractive index of the medium at the ray's position (1 for air)
}

// NewRay returns a ray at the given offset (m) and angle (rad) in a medium of the given index.
func NewRay(offset, angle, index float64) Ray {
	return Ray{Offset: offset, Angle: angle, Index: index}
}

// Vector returns the state vector [index*angle, offset] used with transfer matrices.
func (r Ray) Vector() Vec2 {
	return Vec2{r.Index * r.Angle, r.Offset}
}

// RayFromVector recovers the ray described by v in a medium of the given index.
func RayFromVector(v Vec2, index float64) Ray {
	return Ray{Offset: v[1], Angle: v[0] / index, Index: index}
}
