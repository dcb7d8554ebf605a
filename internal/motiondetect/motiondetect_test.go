package motiondetect

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func grayFrame(t *testing.T, w, h int, value uint8) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetUCharAt(y, x, value)
		}
	}
	return m
}

func TestConstantStreamEmitsNoTrigger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ROIW, cfg.ROIH = 10, 10
	cfg.DifferenceM, cfg.DifferenceC = 1.0, 5
	cfg.RegionThreshold = 0.1

	fired := 0
	stage := New(cfg, func() { fired++ })
	defer stage.Close()

	for i := 0; i < 5; i++ {
		frame := grayFrame(t, 10, 10, 100)
		err := stage.Process(frame, 240)
		require.NoError(t, err)
		frame.Close()
	}

	require.Equal(t, 0, fired)
}

func TestExactThresholdCrossingEmitsExactlyOneTrigger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ROIW, cfg.ROIH = 10, 10
	cfg.DifferenceM, cfg.DifferenceC = 0, 5 // fixed threshold of 5
	cfg.RegionThreshold = 0.5               // half the ROI pixels must jump

	fired := 0
	stage := New(cfg, func() { fired++ })
	defer stage.Close()

	seed := grayFrame(t, 10, 10, 100)
	require.NoError(t, stage.Process(seed, 240))
	seed.Close()

	// Flip exactly half the pixels by +10 (> threshold of 5); the other
	// half stays put.
	jump := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8U)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if y < 5 {
				jump.SetUCharAt(y, x, 110)
			} else {
				jump.SetUCharAt(y, x, 100)
			}
		}
	}
	require.NoError(t, stage.Process(jump, 240))
	jump.Close()

	require.Equal(t, 1, fired)

	// A further frame identical to the one that just fired produces zero
	// diff against the now-updated prev buffer, so it must not retrigger.
	same := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8U)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if y < 5 {
				same.SetUCharAt(y, x, 110)
			} else {
				same.SetUCharAt(y, x, 100)
			}
		}
	}
	require.NoError(t, stage.Process(same, 240))
	same.Close()

	require.Equal(t, 1, fired)
}

func TestEmptyFrameRejected(t *testing.T) {
	stage := New(DefaultConfig(), nil)
	defer stage.Close()

	err := stage.Process(gocv.NewMat(), 240)
	require.ErrorIs(t, err, ErrEmptyFrame)
}
