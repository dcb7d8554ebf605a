package shotanalysis

import (
	"errors"
	"sort"

	"github.com/chewxy/math32"
	"gocv.io/x/gocv"

	"github.com/pitrac/pitrac-go/internal/balldetect"
	"github.com/pitrac/pitrac-go/internal/geometry"
	"github.com/pitrac/pitrac-go/internal/imagebuf"
	"github.com/pitrac/pitrac-go/internal/logger"
	"github.com/pitrac/pitrac-go/internal/pulseplan"
	"github.com/pitrac/pitrac-go/internal/spinsolve"
)

var (
	// ErrTeedBallNotFound is the distinct diagnostic spec.md §4.4
	// requires when the calibration ball can't be located.
	ErrTeedBallNotFound = errors.New("shotanalysis: teed ball not found")
	// ErrTooFewInFlightBalls is returned with confidence 0 and no shot
	// reported, per spec.md §4.4's failure semantics.
	ErrTooFewInFlightBalls = errors.New("shotanalysis: fewer than 2 in-flight balls detected")
	// ErrNonFiniteResult flags the Logic error kind from spec.md §7: a
	// computed delta produced a non-finite value.
	ErrNonFiniteResult = errors.New("shotanalysis: non-finite geometry result")
)

// Handedness selects the direction the shot analyzer sorts in-flight balls
// along the trajectory (spec.md §4.4 step 3).
type Handedness int

const (
	RightHanded Handedness = iota
	LeftHanded
)

// Config bundles the calibration and physical constants the analyzer needs.
type Config struct {
	BallRadiusM        float32
	FocalLengthMM      float32
	SensorMMPerPx      float32
	Intrinsics         geometry.Matrix3x3
	TwoCameraOffsetM   geometry.Vec3 // camera2 position relative to camera1
	Golfer             Handedness
	BallParams         balldetect.Params // PlacedBall mode
	StrobedParams      balldetect.Params // StrobedBall mode
	ExpectedStrobeN    int
	SpinConfig         spinsolve.Config
}

// Analyze runs spec.md §4.4's shot analysis on the teed and strobed
// images, using plan as the strobe time base. It takes no pre-hit image.
func Analyze(teedImage, strobedImage imagebuf.Image, plan pulseplan.Plan, cfg Config) (ShotResult, []BallFull, error) {
	// Step 1: detect the calibration (teed) ball.
	teedCandidates, err := balldetect.Detect(teedImage, balldetect.PlacedBall, cfg.BallParams, nil)
	if err != nil || len(teedCandidates) == 0 {
		logger.Log.Error().Msg("shotanalysis: teed ball detection failed")
		return ShotResult{}, nil, ErrTeedBallNotFound
	}
	teedBall := teedCandidates[0]

	// Step 2: detect in-flight balls in the strobed image.
	flightCandidates, err := balldetect.Detect(strobedImage, balldetect.StrobedBall, cfg.StrobedParams, &teedBall)
	if err != nil {
		return ShotResult{}, nil, err
	}
	if len(flightCandidates) < 2 {
		logger.Log.Warn().Int("count", len(flightCandidates)).Msg("shotanalysis: too few in-flight balls")
		return ShotResult{}, nil, ErrTooFewInFlightBalls
	}

	flightCandidates = preferCount(flightCandidates, cfg.ExpectedStrobeN)

	// Step 3: sort along the trajectory.
	sortTrajectory(flightCandidates, cfg.Golfer)

	first := flightCandidates[0]
	last := flightCandidates[len(flightCandidates)-1]

	// Step 4-5: camera-frame distances/angles and ball-centric deltas.
	deltaWorld, err := ballCentricDelta(teedBall, first, last, cfg)
	if err != nil {
		return ShotResult{}, nil, err
	}

	// Step 9: two-camera offset adjustment.
	deltaWorld = deltaWorld.Add(cfg.TwoCameraOffsetM)

	if !deltaWorld.Finite() {
		return ShotResult{}, nil, ErrNonFiniteResult
	}

	// Step 6: HLA/VLA.
	hlaRad := math32.Atan2(deltaWorld.X(), deltaWorld.Z())
	vlaRad := math32.Atan2(deltaWorld.Y(), deltaWorld.Z())

	// Step 7: pulse-plan time base and velocity. Deliberately the sum of
	// the intervals separating the two exposures, not (N-1)*period
	// (spec.md §9 Open Question).
	deltaTUs := plan.IntervalBetweenUs(0, len(flightCandidates)-1)
	if deltaTUs <= 0 {
		return ShotResult{}, nil, ErrNonFiniteResult
	}
	deltaTSeconds := float32(deltaTUs) / 1_000_000

	speedMS := deltaWorld.Magnitude() / deltaTSeconds

	// Step 8: spin solver against the calibration ball, once per in-flight
	// ball so each gets its own Ball (full) rotation fields, then
	// confidence-weighted averaged into the reported shot spin.
	perBallSpin := solveSpinPerBall(teedImage.Mat, strobedImage.Mat, teedBall, flightCandidates, cfg)
	backSpin, sideSpin, spinConfidence := aggregateSpin(perBallSpin, deltaTUs)

	balls := buildBallFulls(teedBall, flightCandidates, perBallSpin, plan, speedMS, cfg)

	result := ShotResult{
		SpeedMPH:    speedMS * metersPerSecondToMPH,
		VLADeg:      geometry.RadToDeg(vlaRad),
		HLADeg:      geometry.RadToDeg(hlaRad),
		BackSpinRPM: backSpin,
		SideSpinRPM: sideSpin,
	}
	_ = spinConfidence

	return result, balls, nil
}

// preferCount trims to the configured expected strobe count when more
// candidates were detected than pulses were fired, keeping the
// highest-confidence subset while preserving trajectory order is left to
// sortTrajectory; here we only bound the count from above.
func preferCount(candidates []balldetect.BallPosition, expected int) []balldetect.BallPosition {
	if expected <= 0 || len(candidates) <= expected {
		return candidates
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Confidence > candidates[j].Confidence })
	return candidates[:expected]
}

func sortTrajectory(balls []balldetect.BallPosition, golfer Handedness) {
	sort.Slice(balls, func(i, j int) bool {
		if golfer == LeftHanded {
			return balls[i].XPx > balls[j].XPx
		}
		return balls[i].XPx < balls[j].XPx
	})
}

// ballCentricDelta implements spec.md §4.4 steps 4-5: camera-frame
// distances from apparent radius, camera-frame angles from pixel
// coordinates via the intrinsic matrix, then transforms the delta between
// first and last in-flight ball into a ball-centric frame whose z axis
// points from the teed position toward the target.
func ballCentricDelta(teed, first, last balldetect.BallPosition, cfg Config) (geometry.Vec3, error) {
	firstWorld := ballWorldPosition(first, cfg)
	lastWorld := ballWorldPosition(last, cfg)
	teedWorld := ballWorldPosition(teed, cfg)

	target := lastWorld.Sub(teedWorld).Normal()
	// Build an orthonormal ball-centric frame: z toward target, y world-up
	// projected orthogonal to z, x completing the right-handed frame.
	worldUp := geometry.Vec3{0, 1, 0}
	x := worldUp.Cross(target).Normal()
	y := target.Cross(x).Normal()

	raw := lastWorld.Sub(firstWorld)
	delta := geometry.Vec3{raw.Dot(x), raw.Dot(y), raw.Dot(target)}

	if !delta.Finite() {
		return geometry.Vec3{}, ErrNonFiniteResult
	}
	return delta, nil
}

func ballWorldPosition(b balldetect.BallPosition, cfg Config) geometry.Vec3 {
	dist := geometry.BallDistanceFromRadius(b.RPx, cfg.FocalLengthMM, cfg.SensorMMPerPx, cfg.BallRadiusM)
	ray := geometry.PixelToRay(b.XPx, b.YPx, cfg.Intrinsics)
	return ray.MulC(dist)
}

// ballSpin is one in-flight ball's recovered rotation against the
// calibration ball, the per-ball counterpart of GolfBall's
// ball_rotation_angles_camera_ortho_perspective_ (original_source's
// golf_ball.cpp).
type ballSpin struct {
	RxDeg, RyDeg, RzDeg float32
	Confidence          float32
}

// solveSpinPerBall runs the spin solver once per in-flight ball against
// the calibration ball, the per-ball rotation the original's
// GolfBall::ball_rotation_angles_camera_ortho_perspective_ field holds
// before GolfBall::AverageBalls folds it down to a single shot value.
func solveSpinPerBall(teedMat, strobedMat gocv.Mat, teed balldetect.BallPosition, flight []balldetect.BallPosition, cfg Config) []ballSpin {
	out := make([]ballSpin, len(flight))
	for i, ball := range flight {
		res, err := spinsolve.Solve(teedMat, strobedMat, teed, ball, cfg.SpinConfig)
		if err != nil {
			continue
		}
		out[i] = ballSpin{RxDeg: res.RxDeg, RyDeg: res.RyDeg, RzDeg: res.RzDeg, Confidence: res.Confidence}
	}
	return out
}

// aggregateSpin implements spec.md §4.4 step 8: average the per-ball
// rotation angles weighted by confidence, converting the averaged
// degrees-per-plan-interval into RPM via the pulse-plan time base. On low
// confidence, spin stays at zero and the shot is still reported.
func aggregateSpin(perBall []ballSpin, deltaTUs int64) (backSpinRPM, sideSpinRPM, confidence float32) {
	var sumWeight, sumRx, sumRy float32
	for _, s := range perBall {
		sumRx += s.RxDeg * s.Confidence
		sumRy += s.RyDeg * s.Confidence
		sumWeight += s.Confidence
	}

	if sumWeight == 0 {
		logger.Log.Warn().Msg("shotanalysis: spin solver below confidence threshold, reporting zero spin")
		return 0, 0, 0
	}

	avgRx := sumRx / sumWeight
	avgRy := sumRy / sumWeight

	if deltaTUs <= 0 {
		return 0, 0, sumWeight
	}

	backSpinRPM = degPerMicrosecondToRPM(avgRx / float32(deltaTUs))
	sideSpinRPM = degPerMicrosecondToRPM(avgRy / float32(deltaTUs))
	return backSpinRPM, sideSpinRPM, sumWeight
}

// buildBallFulls assembles the spec.md §3 Ball (full) record for the
// calibration ball and every in-flight ball: camera-frame distance and
// angles derived the same way ballWorldPosition derives them, plus (for
// in-flight balls) the per-ball rotation solveSpinPerBall recovered and
// the rotation speed that rotation implies over the pulse-plan interval
// since the first strobe exposure. Mirrors GolfBall's
// distances_ortho_camera_perspective_/angles_camera_ortho_perspective_/
// ball_rotation_angles_camera_ortho_perspective_/rotation_speeds_RPM_
// fields (original_source's golf_ball.cpp).
func buildBallFulls(teed balldetect.BallPosition, flight []balldetect.BallPosition, spins []ballSpin, plan pulseplan.Plan, velocityMS float32, cfg Config) []BallFull {
	out := make([]BallFull, 0, len(flight)+1)
	out = append(out, newBallFull(teed, cfg))

	for i, b := range flight {
		full := newBallFull(b, cfg)
		full.VelocityMS = velocityMS

		if i >= len(spins) {
			out = append(out, full)
			continue
		}
		s := spins[i]
		full.RotationDeg = geometry.Vec3{s.RxDeg, s.RyDeg, s.RzDeg}

		deltaTUs := plan.IntervalBetweenUs(0, i+1)
		if deltaTUs > 0 {
			full.RotationSpeedRPM = geometry.Vec3{
				degPerMicrosecondToRPM(s.RxDeg / float32(deltaTUs)),
				degPerMicrosecondToRPM(s.RyDeg / float32(deltaTUs)),
				degPerMicrosecondToRPM(s.RzDeg / float32(deltaTUs)),
			}
		}
		out = append(out, full)
	}
	return out
}

// newBallFull computes the camera-frame distance and angle fields every
// Ball (full) record carries, regardless of whether it's the calibration
// ball or an in-flight ball.
func newBallFull(b balldetect.BallPosition, cfg Config) BallFull {
	dist := geometry.BallDistanceFromRadius(b.RPx, cfg.FocalLengthMM, cfg.SensorMMPerPx, cfg.BallRadiusM)
	ray := geometry.PixelToRay(b.XPx, b.YPx, cfg.Intrinsics)
	return BallFull{
		Position:        b,
		CameraDistanceM: dist,
		CameraAngleXDeg: geometry.RadToDeg(math32.Atan2(ray.X(), ray.Z())),
		CameraAngleYDeg: geometry.RadToDeg(math32.Atan2(ray.Y(), ray.Z())),
	}
}
