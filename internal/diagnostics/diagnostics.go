// Package diagnostics implements C11: composing the final shot result,
// persisting labeled diagnostic artifacts to the logging directory, and
// emitting periodic status events (spec.md §4.11).
package diagnostics

import (
	"fmt"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/pitrac/pitrac-go/internal/logger"
	"github.com/pitrac/pitrac-go/internal/motiondetect"
	"github.com/pitrac/pitrac-go/internal/shotanalysis"
)

// Status mirrors the kWaitingForBallToAppear/kHit/kError status event set
// spec.md §4.11 names. Emit logs each status and hands it to the publisher
// given to New; with a nil publisher statuses are only logged, and the ipc
// package has no status message kind to carry them on the bus.
type Status string

const (
	StatusWaitingForBallToAppear       Status = "kWaitingForBallToAppear"
	StatusPausingForBallStabilization  Status = "kPausingForBallStabilization"
	StatusWaitingForSimulatorArmed     Status = "kWaitingForSimulatorArmed"
	StatusWaitingForCamera2PreImage    Status = "kWaitingForCamera2PreImage"
	StatusWaitingForBallHit            Status = "kWaitingForBallHit"
	StatusHit                          Status = "kHit"
	StatusError                        Status = "kError"
)

// Aggregator writes diagnostic artifacts to a fixed directory and relays
// status events through a caller-supplied publisher, keeping the file I/O
// and the IPC bus dependency out of the shot-analysis hot path.
type Aggregator struct {
	logDir    string
	publish   func(Status, string)
	fileStamp func() string
}

// New builds an Aggregator. fileStamp supplies the timestamp component of
// persisted filenames; callers pass a real clock in production and a
// deterministic stub in tests.
func New(logDir string, publish func(Status, string), fileStamp func() string) *Aggregator {
	if publish == nil {
		publish = func(Status, string) {}
	}
	if fileStamp == nil {
		fileStamp = func() string { return time.Now().UTC().Format("20060102T150405") }
	}
	return &Aggregator{logDir: logDir, publish: publish, fileStamp: fileStamp}
}

// Emit publishes a status event with an optional human-readable detail.
func (a *Aggregator) Emit(status Status, detail string) {
	logger.Log.Info().Str("status", string(status)).Str("detail", detail).Msg("diagnostics: status")
	a.publish(status, detail)
}

// SaveTeedBallOverlay writes img unchanged as spec.md §6's
// log_ball_final_found_ball_img.*.png artifact; it draws no detection
// markings of its own.
func (a *Aggregator) SaveTeedBallOverlay(img gocv.Mat) error {
	return a.writePNG(fmt.Sprintf("log_ball_final_found_ball_img.%s.png", a.fileStamp()), img)
}

// SaveStrobedFlightOverlay writes img unchanged as spec.md §6's
// log_cam2_last_strobed_img.*.png artifact; it draws no detection
// markings of its own.
func (a *Aggregator) SaveStrobedFlightOverlay(img gocv.Mat) error {
	return a.writePNG(fmt.Sprintf("log_cam2_last_strobed_img.%s.png", a.fileStamp()), img)
}

// SavePreImage persists the flight camera's no-ball background reference
// per spec.md §6's log_cam2_last_pre_image.png artifact.
func (a *Aggregator) SavePreImage(img gocv.Mat) error {
	return a.writePNG("log_cam2_last_pre_image.png", img)
}

func (a *Aggregator) writePNG(name string, img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("diagnostics: %s: empty image", name)
	}
	path := filepath.Join(a.logDir, name)
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("diagnostics: failed to write %s", path)
	}
	return nil
}

// LogBallFulls records the per-ball derived fields (camera distance/
// angles, rotation, rotation speed, velocity) the shot analyzer computed
// for the calibration ball and every in-flight ball, the Go-module
// counterpart of GolfBall::PrintBallFlightResults (original_source's
// golf_ball.cpp). Trace-level since this is per-ball diagnostic detail,
// not an operator-facing status.
func (a *Aggregator) LogBallFulls(balls []shotanalysis.BallFull) {
	for i, b := range balls {
		logger.Log.Trace().
			Int("ball_index", i).
			Float32("x_px", b.Position.XPx).
			Float32("y_px", b.Position.YPx).
			Float32("camera_distance_m", b.CameraDistanceM).
			Float32("camera_angle_x_deg", b.CameraAngleXDeg).
			Float32("camera_angle_y_deg", b.CameraAngleYDeg).
			Float32("rotation_x_deg", b.RotationDeg.X()).
			Float32("rotation_y_deg", b.RotationDeg.Y()).
			Float32("rotation_z_deg", b.RotationDeg.Z()).
			Float32("rotation_speed_x_rpm", b.RotationSpeedRPM.X()).
			Float32("rotation_speed_y_rpm", b.RotationSpeedRPM.Y()).
			Float32("rotation_speed_z_rpm", b.RotationSpeedRPM.Z()).
			Float32("velocity_ms", b.VelocityMS).
			Msg("diagnostics: ball full")
	}
}

// SaveClubStrikeVideo writes the optional pre/post-hit frame montage as
// ClubStrike_<ts>.mp4, per spec.md §6.
func (a *Aggregator) SaveClubStrikeVideo(frames []motiondetect.RingFrame, fps float64) error {
	if len(frames) == 0 {
		return nil
	}
	path := filepath.Join(a.logDir, fmt.Sprintf("ClubStrike_%s.mp4", a.fileStamp()))

	first := frames[0].Mat
	writer, err := gocv.VideoWriterFile(path, "mp4v", fps, first.Cols(), first.Rows(), true)
	if err != nil {
		return fmt.Errorf("diagnostics: open video writer: %w", err)
	}
	defer writer.Close()

	for _, f := range frames {
		if err := writer.Write(f.Mat); err != nil {
			return fmt.Errorf("diagnostics: write frame %d: %w", f.SequenceNo, err)
		}
	}
	return nil
}
