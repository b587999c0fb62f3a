package paraxial

// Vec2 is a paraxial ray state [index*angle, offset] at one plane.
type Vec2 [2]float64

// Mat2 is a 2x2 ray-transfer (ABCD) matrix, row-major.
type Mat2 [2][2]float64

// Identity2 returns the 2x2 identity.
func Identity2() Mat2 {
	return Mat2{
		{1, 0},
		{0, 1},
	}
}

// MulVec returns m*v.
func (m Mat2) MulVec(v Vec2) Vec2 {
	return Vec2{
		m[0][0]*v[0] + m[0][1]*v[1],
		m[1][0]*v[0] + m[1][1]*v[1],
	}
}

// Mul returns m*b. Applied to a vector, b acts first.
func (m Mat2) Mul(b Mat2) Mat2 {
	var r Mat2
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			r[row][col] = m[row][0]*b[0][col] + m[row][1]*b[1][col]
		}
	}
	return r
}

// Det returns the determinant, 1 for every lossless transfer matrix.
func (m Mat2) Det() float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

// Compose chains matrices in propagation order: ms[0] acts first, so the
// result is ms[k-1] * ... * ms[1] * ms[0].
func Compose(ms ...Mat2) Mat2 {
	r := Identity2()
	for _, m := range ms {
		r = m.Mul(r)
	}
	return r
}

// Translation propagates a ray over distance through a uniform medium of the
// given refractive index. The reduced angle is unchanged and the offset grows
// by distance*angle.
func Translation(distance, index float64) Mat2 {
	return Mat2{
		{1, 0},
		{distance / index, 1},
	}
}

// SurfaceRefraction refracts a ray at a spherical surface of the given signed
// radius separating index1 (incoming side) from index2. Paraxial Snell:
// index2*angle2 = index1*angle1 - (index2-index1)*offset/radius.
func SurfaceRefraction(index1, index2, radius float64) Mat2 {
	return Mat2{
		{1, -(index2 - index1) / radius},
		{0, 1},
	}
}
