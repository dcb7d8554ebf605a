package geometry

import "github.com/chewxy/math32"

// Vec3 is a 3-element vector in meters (world/camera frame) or unitless
// (ray directions). float32 matches the teacher's math32 hot-path
// convention and the precision the sensor model actually provides.
type Vec3 [3]float32

func (v Vec3) X() float32 { return v[0] }
func (v Vec3) Y() float32 { return v[1] }
func (v Vec3) Z() float32 { return v[2] }

func (v Vec3) XYZ() (float32, float32, float32) { return v[0], v[1], v[2] }

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) MulC(c float32) Vec3 {
	return Vec3{v[0] * c, v[1] * c, v[2] * c}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) SumSqr() float32 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func (v Vec3) Magnitude() float32 {
	return math32.Sqrt(v.SumSqr())
}

func (v Vec3) Normal() Vec3 {
	m := v.Magnitude()
	if m == 0 {
		return v
	}
	return v.MulC(1 / m)
}

// Finite reports whether every component is a finite, non-NaN value, the
// invariant required of every constructed ball position and derived field.
func (v Vec3) Finite() bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
