package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUndistortDistortRoundTrip(t *testing.T) {
	d := Distortion{-0.05, 0.01, 0.001, -0.0007, 0.0002}
	x, y := float32(0.3), float32(-0.2)

	ux, uy := Undistort(x, y, d)
	rx, ry := Distort(ux, uy, d)

	require.InDelta(t, float64(x), float64(rx), 1e-3)
	require.InDelta(t, float64(y), float64(ry), 1e-3)
}

func TestPixelToRayRoundTrip(t *testing.T) {
	k := Matrix3x3{
		{1000, 0, 960},
		{0, 1000, 540},
		{0, 0, 1},
	}

	ray := PixelToRay(1200, 300, k)
	require.True(t, ray.Finite())

	px, py := RayToPixel(ray, k)
	require.InDelta(t, 1200.0, float64(px), 1e-2)
	require.InDelta(t, 300.0, float64(py), 1e-2)
}

func TestBallDistanceFromRadius(t *testing.T) {
	// A ball of 21.3mm radius imaged at 50px with a 6mm lens and a
	// 0.003mm/px sensor sits roughly 0.85m away.
	dist := BallDistanceFromRadius(50, 6, 0.003, 0.0213)
	require.Greater(t, dist, float32(0))
}

func TestIdentityIntrinsicsIsDefault(t *testing.T) {
	intr := DefaultIntrinsics(1920, 1080)
	require.Equal(t, Identity3x3(), intr.K)
}

func TestDegRadRoundTrip(t *testing.T) {
	deg := float32(37.5)
	rad := DegToRad(deg)
	require.InDelta(t, float64(deg), float64(RadToDeg(rad)), 1e-4)
	require.InDelta(t, math.Pi/180*37.5, float64(rad), 1e-3)
}
