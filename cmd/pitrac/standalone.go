package main

import (
	"fmt"

	"github.com/pitrac/pitrac-go/internal/balldetect"
	"github.com/pitrac/pitrac-go/internal/imagebuf"
	"github.com/pitrac/pitrac-go/internal/logger"
)

// runCamera1BallLocation captures a single camera-1 frame and reports
// where the placed-ball search found the ball, for bench alignment
// (spec.md §6).
func runCamera1BallLocation(app *App) error {
	cam, err := app.openCamera("cameras.camera1", "0:1280x720", imagebuf.SourceCamera1)
	if err != nil {
		return err
	}
	defer cam.Close()

	img, err := cam.Read()
	if err != nil {
		return fmt.Errorf("pitrac: read camera1 frame: %w", err)
	}
	defer img.Close()

	cfg := app.shotAnalysisConfig()
	positions, err := balldetect.Detect(img, balldetect.PlacedBall, cfg.BallParams, nil)
	if err != nil {
		return fmt.Errorf("pitrac: ball detection failed: %w", err)
	}
	if len(positions) == 0 {
		fmt.Println("pitrac: no ball found")
		return nil
	}

	best := positions[0]
	fmt.Printf("ball found at x=%.1f y=%.1f r=%.1f confidence=%.2f method=%s\n",
		best.XPx, best.YPx, best.RPx, best.Confidence, best.Method)
	return nil
}

// runCameraCalibrate derives a focal length from a ball of known physical
// radius placed at a known distance, inverting geometry.BallDistanceFromRadius
// the way the original lm_main.cpp's AutoCalibrateCamera / GetCalibratedBall
// path does: measure the apparent radius, then solve for the focal length
// that would have produced it at the configured distance.
func runCameraCalibrate(app *App, cameraKey, defaultDevice string) error {
	source := imagebuf.SourceCamera1
	if cameraKey == "cameras.camera2" {
		source = imagebuf.SourceCamera2
	}
	cam, err := app.openCamera(cameraKey, defaultDevice, source)
	if err != nil {
		return err
	}
	defer cam.Close()

	img, err := cam.Read()
	if err != nil {
		return fmt.Errorf("pitrac: read frame: %w", err)
	}
	defer img.Close()

	cfg := app.shotAnalysisConfig()
	positions, err := balldetect.Detect(img, balldetect.PlacedBall, cfg.BallParams, nil)
	if err != nil {
		return fmt.Errorf("pitrac: ball detection failed: %w", err)
	}
	if len(positions) == 0 {
		return fmt.Errorf("pitrac: no ball found to calibrate against")
	}

	knownDistanceM := float32(app.Config.GetFloat(cameraKey+".calibration_distance_m", 0.5))
	apparentRadiusPx := positions[0].RPx
	focalLengthMM := calibratedFocalLength(apparentRadiusPx, knownDistanceM, cfg.SensorMMPerPx, cfg.BallRadiusM)

	logger.Log.Info().
		Float32("apparent_radius_px", apparentRadiusPx).
		Float32("known_distance_m", knownDistanceM).
		Float32("calibrated_focal_length_mm", focalLengthMM).
		Msg("pitrac: camera calibration complete")
	fmt.Printf("calibrated focal length: %.3f mm (distance=%.3fm, apparent radius=%.1fpx)\n",
		focalLengthMM, knownDistanceM, apparentRadiusPx)
	return nil
}

// calibratedFocalLength solves geometry.BallDistanceFromRadius for
// focalLengthMM given a known distance, rather than the usual direction
// of solving for distance given a known focal length.
func calibratedFocalLength(rPx, knownDistanceM, sensorMMPerPx, ballRadiusM float32) float32 {
	if rPx <= 0 {
		return 0
	}
	ballRadiusMM := ballRadiusM * 1000
	apparentRadiusMM := rPx * sensorMMPerPx
	knownDistanceMM := knownDistanceM * 1000
	return knownDistanceMM * apparentRadiusMM / ballRadiusMM
}
