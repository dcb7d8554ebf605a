package geometry

import "github.com/chewxy/math32"

// Matrix3x3 is a row-major 3x3 matrix, used both for the camera intrinsic
// matrix and for composing Euler-angle rotations in the spin solver.
// Adapted from the teacher's generated mat.Matrix3x3 type, trimmed to the
// handful of operations this module exercises.
type Matrix3x3 [3][3]float32

// Identity returns the 3x3 identity matrix, the intrinsics default used
// when no calibration is known for a resolution (spec.md Camera descriptor).
func Identity3x3() Matrix3x3 {
	return Matrix3x3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

func RotationX(a float32) Matrix3x3 {
	c, s := math32.Cos(a), math32.Sin(a)
	return Matrix3x3{
		{1, 0, 0},
		{0, c, -s},
		{0, s, c},
	}
}

func RotationY(a float32) Matrix3x3 {
	c, s := math32.Cos(a), math32.Sin(a)
	return Matrix3x3{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

func RotationZ(a float32) Matrix3x3 {
	c, s := math32.Cos(a), math32.Sin(a)
	return Matrix3x3{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

// EulerZXY composes a rotation in the z-then-x-then-y order spec.md §4.3
// requires for the orthographic sphere warp: R = Ry * Rx * Rz.
func EulerZXY(rx, ry, rz float32) Matrix3x3 {
	return RotationY(ry).Mul(RotationX(rx)).Mul(RotationZ(rz))
}

func (m Matrix3x3) Mul(o Matrix3x3) Matrix3x3 {
	var r Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += m[i][k] * o[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

func (m Matrix3x3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Transpose is the inverse of a pure rotation matrix.
func (m Matrix3x3) Transpose() Matrix3x3 {
	var r Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[j][i] = m[i][j]
		}
	}
	return r
}

// Invert3x3 inverts a general 3x3 matrix (used for the intrinsic matrix,
// which is not a pure rotation). ok is false for a singular matrix.
func (m Matrix3x3) Invert3x3() (Matrix3x3, bool) {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		return Matrix3x3{}, false
	}
	invDet := 1 / det

	return Matrix3x3{
		{(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet},
		{(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet},
		{(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet},
	}, true
}
