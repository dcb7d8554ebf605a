package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/geometry"
)

const fixture = `
cameras:
  camera1:
    gain: 4.5
    model: "innomaker_ov9281"
  camera2_offset: [0.1, 0.02, -0.05]
motion_detect_stage:
  region_threshold: 0.1
  difference_m: 1.2
modes:
  PlacedBall:
    intrinsics:
      K: [[1000,0,960],[0,1000,540],[0,0,1]]
`

func TestDottedLookup(t *testing.T) {
	s, err := LoadBytes([]byte(fixture))
	require.NoError(t, err)

	require.Equal(t, 4.5, s.GetFloat("cameras.camera1.gain", -1))
	require.Equal(t, "innomaker_ov9281", s.GetString("cameras.camera1.model", ""))
	require.Equal(t, 0.1, s.GetFloat("motion_detect_stage.region_threshold", -1))
}

func TestMissingKeyReturnsDefault(t *testing.T) {
	s, err := LoadBytes([]byte(fixture))
	require.NoError(t, err)

	require.Equal(t, 42.0, s.GetFloat("cameras.camera1.nonexistent", 42))
	require.Equal(t, "fallback", s.GetString("nope", "fallback"))
}

func TestVector3Lookup(t *testing.T) {
	s, err := LoadBytes([]byte(fixture))
	require.NoError(t, err)

	v := s.GetVector3("cameras.camera2_offset", geometry.Vec3{})
	require.InDelta(t, 0.1, float64(v[0]), 1e-6)
	require.InDelta(t, 0.02, float64(v[1]), 1e-6)
	require.InDelta(t, -0.05, float64(v[2]), 1e-6)
}

func TestMatrix3x3Lookup(t *testing.T) {
	s, err := LoadBytes([]byte(fixture))
	require.NoError(t, err)

	m := s.GetMatrix3x3("modes.PlacedBall.intrinsics.K", geometry.Identity3x3())
	require.Equal(t, float32(1000), m[0][0])
	require.Equal(t, float32(540), m[1][2])
}
