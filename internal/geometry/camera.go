// Package geometry implements C1: pixel<->ray conversions, camera
// intrinsics, lens distortion, and the forward model that turns an apparent
// ball radius into a distance along the optical axis. All distances are in
// meters, all angles are in degrees at package boundaries and radians
// internally, all timestamps elsewhere in the core are microseconds.
package geometry

import "github.com/chewxy/math32"

// Distortion is the standard 5-term radial+tangential model: (k1, k2, p1,
// p2, k3).
type Distortion [5]float32

// Intrinsics describes one calibrated camera at one resolution, per the
// Camera descriptor in spec.md §3. Loaded per model/resolution by the
// config store; defaults to Identity3x3/zero distortion with a warning
// when no calibration exists for the resolution in use.
type Intrinsics struct {
	SensorSizeMM   [2]float32
	ResolutionPx   [2]int
	FocalLengthMM  float32
	FoVDeg         [2]float32
	K              Matrix3x3 // 3x3 intrinsic matrix
	Dist           Distortion
	CameraPose     Pose
}

// DefaultIntrinsics returns identity intrinsics with zero distortion, the
// fallback spec.md §3 mandates when no calibration is known.
func DefaultIntrinsics(resW, resH int) Intrinsics {
	return Intrinsics{
		ResolutionPx: [2]int{resW, resH},
		K:            Identity3x3(),
	}
}

// Pose is a camera or ball pose relative to an arbitrary world origin.
type Pose struct {
	Position Vec3
	Rotation Matrix3x3
}

// Undistort applies the radial+tangential model to a single normalized
// pixel coordinate (x, y already divided by focal length / principal
// point), returning undistorted normalized coordinates.
func Undistort(x, y float32, d Distortion) (float32, float32) {
	r2 := x*x + y*y
	r4 := r2 * r2
	r6 := r4 * r2

	radial := 1 + d[0]*r2 + d[1]*r4 + d[4]*r6

	xTangential := 2*d[2]*x*y + d[3]*(r2+2*x*x)
	yTangential := d[2]*(r2+2*y*y) + 2*d[3]*x*y

	return x*radial + xTangential, y*radial + yTangential
}

// Distort is the forward (re-distortion) model, the inverse operation
// Undistort is checked against in the round-trip property in spec.md §8.
// It solves the Undistort equation by fixed-point iteration, which
// converges quickly for the small distortion coefficients typical of a
// golf-simulator lens.
func Distort(x, y float32, d Distortion) (float32, float32) {
	ux, uy := x, y
	for i := 0; i < 10; i++ {
		r2 := ux*ux + uy*uy
		r4 := r2 * r2
		r6 := r4 * r2
		radial := 1 + d[0]*r2 + d[1]*r4 + d[4]*r6
		xTangential := 2*d[2]*ux*uy + d[3]*(r2+2*ux*ux)
		yTangential := d[2]*(r2+2*uy*uy) + 2*d[3]*ux*uy

		ux = (x - xTangential) / radial
		uy = (y - yTangential) / radial
	}
	return ux, uy
}

// PixelToRay converts a pixel coordinate to a unit ray direction in the
// camera frame, using the intrinsic matrix's focal length and principal
// point.
func PixelToRay(px, py float32, k Matrix3x3) Vec3 {
	fx, fy := k[0][0], k[1][1]
	cx, cy := k[0][2], k[1][2]
	if fx == 0 {
		fx = 1
	}
	if fy == 0 {
		fy = 1
	}
	x := (px - cx) / fx
	y := (py - cy) / fy
	return Vec3{x, y, 1}.Normal()
}

// RayToPixel is the inverse of PixelToRay: it projects a camera-frame
// direction back onto the pixel plane.
func RayToPixel(ray Vec3, k Matrix3x3) (float32, float32) {
	fx, fy := k[0][0], k[1][1]
	cx, cy := k[0][2], k[1][2]
	if ray[2] == 0 {
		return cx, cy
	}
	x := ray[0] / ray[2]
	y := ray[1] / ray[2]
	return x*fx + cx, y*fy + cy
}

// BallDistanceFromRadius is the forward model converting apparent ball
// radius (in pixels) to distance along the optical axis, given the focal
// length, the sensor's mm-per-pixel, and the ball's known physical radius.
func BallDistanceFromRadius(rPx, focalLengthMM, sensorMMPerPx, ballRadiusM float32) float32 {
	if rPx <= 0 {
		return 0
	}
	ballRadiusMM := ballRadiusM * 1000
	apparentRadiusMM := rPx * sensorMMPerPx
	return (ballRadiusMM * focalLengthMM) / apparentRadiusMM / 1000
}

// ComposePose transforms a ball offset in camera-local coordinates into
// world coordinates given the owning camera's pose.
func ComposePose(cameraPose Pose, ballOffset Vec3) Vec3 {
	return cameraPose.Position.Add(cameraPose.Rotation.MulVec(ballOffset))
}

// DegToRad / RadToDeg convert at the boundary between the external API
// (degrees) and internal math (radians), per spec.md §4.1 numeric
// semantics.
func DegToRad(deg float32) float32 { return deg * math32.Pi / 180 }
func RadToDeg(rad float32) float32 { return rad * 180 / math32.Pi }
