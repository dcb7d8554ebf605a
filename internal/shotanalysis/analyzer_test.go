package shotanalysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/balldetect"
	"github.com/pitrac/pitrac-go/internal/geometry"
)

func mustBall(t *testing.T, x, y, r, confidence float32) balldetect.BallPosition {
	t.Helper()
	b, err := balldetect.New(x, y, r, confidence, 0, balldetect.MethodHoughStrobed)
	require.NoError(t, err)
	return b
}

func TestSortTrajectoryRightHanded(t *testing.T) {
	balls := []balldetect.BallPosition{
		mustBall(t, 300, 100, 10, 0.8),
		mustBall(t, 100, 100, 10, 0.8),
		mustBall(t, 200, 100, 10, 0.8),
	}
	sortTrajectory(balls, RightHanded)
	require.Equal(t, float32(100), balls[0].XPx)
	require.Equal(t, float32(200), balls[1].XPx)
	require.Equal(t, float32(300), balls[2].XPx)
}

func TestSortTrajectoryLeftHanded(t *testing.T) {
	balls := []balldetect.BallPosition{
		mustBall(t, 100, 100, 10, 0.8),
		mustBall(t, 300, 100, 10, 0.8),
		mustBall(t, 200, 100, 10, 0.8),
	}
	sortTrajectory(balls, LeftHanded)
	require.Equal(t, float32(300), balls[0].XPx)
	require.Equal(t, float32(200), balls[1].XPx)
	require.Equal(t, float32(100), balls[2].XPx)
}

func TestPreferCountTrimsToExpected(t *testing.T) {
	balls := []balldetect.BallPosition{
		mustBall(t, 1, 1, 10, 0.4),
		mustBall(t, 2, 2, 10, 0.9),
		mustBall(t, 3, 3, 10, 0.6),
	}
	trimmed := preferCount(balls, 2)
	require.Len(t, trimmed, 2)
	require.Equal(t, float32(0.9), trimmed[0].Confidence)
	require.Equal(t, float32(0.6), trimmed[1].Confidence)
}

func TestPreferCountNoopWhenUnderLimit(t *testing.T) {
	balls := []balldetect.BallPosition{mustBall(t, 1, 1, 10, 0.4)}
	require.Len(t, preferCount(balls, 5), 1)
	require.Len(t, preferCount(balls, 0), 1)
}

func TestBallCentricDeltaIsFiniteAndOnTargetAxis(t *testing.T) {
	cfg := Config{
		BallRadiusM:   0.0214,
		FocalLengthMM: 6,
		SensorMMPerPx: 0.003,
		Intrinsics:    geometry.Identity3x3(),
	}
	teed := mustBall(t, 320, 240, 50, 0.9)
	first := mustBall(t, 300, 240, 20, 0.9)
	last := mustBall(t, 100, 240, 10, 0.9)

	delta, err := ballCentricDelta(teed, first, last, cfg)
	require.NoError(t, err)
	require.True(t, delta.Finite())
	// Moving away from camera shrinks radius, so most displacement should
	// land on the z (target-facing) axis.
	require.Greater(t, math32Abs(delta.Z()), float32(0))
}

func math32Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestAnalyzeFailsWithTooFewFlightBallsIsDistinctFromTeedMiss(t *testing.T) {
	require.NotEqual(t, ErrTeedBallNotFound, ErrTooFewInFlightBalls)
}
