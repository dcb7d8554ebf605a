package main

import (
	"context"
	"time"

	"github.com/pitrac/pitrac-go/internal/camera"
	"github.com/pitrac/pitrac-go/internal/clubdata"
	"github.com/pitrac/pitrac-go/internal/diagnostics"
	"github.com/pitrac/pitrac-go/internal/fsm"
	"github.com/pitrac/pitrac-go/internal/imagebuf"
	"github.com/pitrac/pitrac-go/internal/ipc"
	"github.com/pitrac/pitrac-go/internal/logger"
	"github.com/pitrac/pitrac-go/internal/motiondetect"
	"github.com/pitrac/pitrac-go/internal/pulseplan"
	"github.com/pitrac/pitrac-go/internal/shotanalysis"
	"github.com/pitrac/pitrac-go/internal/simsink"
)

// ballStabilizationDelay is the pause the original implementation holds
// after motion first settles before arming camera 2, long enough for a
// placed ball to stop rolling but short enough not to miss a quick swing.
const ballStabilizationDelay = 400 * time.Millisecond

// runCamera1 drives the watcher FSM: it owns camera 1, the motion-
// detection stage, the simulator sinks and the IPC bus, translating
// camera and bus events into fsm.Event values for the single-consumer
// queue the FSM thread reads from (spec.md §4.7, §5).
func runCamera1(ctx context.Context, app *App) error {
	cam, err := app.openCamera("cameras.camera1", "0:1280x720", imagebuf.SourceCamera1)
	if err != nil {
		return err
	}
	defer cam.Close()

	bus, err := app.connectBus("watcher")
	if err != nil {
		return err
	}
	defer bus.Close()

	var sinks []simsink.SimSink
	for _, s := range app.buildSimSinks() {
		defer s.Deinit()
		if err := s.Init(); err != nil {
			logger.Log.Warn().Err(err).Msg("pitrac: simulator sink init failed, continuing without it")
			continue
		}
		sinks = append(sinks, s)
	}

	queue := fsm.NewQueue(128)
	watcher := fsm.NewWatcher(app.Clubs)

	if err := bus.Subscribe(func(msg ipc.Message) { routeWatcherMessage(queue, msg) }); err != nil {
		return err
	}

	var teedBallImg imagebuf.Image
	stage := motiondetect.New(app.motionConfig(), func() {
		onMotionTrigger(queue)
	})
	defer stage.Close()

	stopCapture := make(chan struct{})
	go captureGrayLoop(cam, stage, stopCapture)
	defer close(stopCapture)

	analysisCfg := app.shotAnalysisConfig()
	shotNumber := 0

	armedOnce := false
	for {
		select {
		case <-ctx.Done():
			queue.Push(fsm.Event{Kind: fsm.EventShutdown})
		default:
		}

		if !armedOnce && simsink.AllArmed(sinks) {
			queue.Push(fsm.Event{Kind: fsm.EventSimulatorArmed})
			armedOnce = true
		}

		e, ok := queue.Pop(500 * time.Millisecond)
		if !ok {
			e = fsm.Event{Kind: fsm.EventTimeout}
		}

		prevState := watcher.State
		action := watcher.Step(e)

		switch action {
		case fsm.ActionArmCamera2:
			if img, err := cam.Read(); err == nil {
				teedBallImg = img
				app.Diag.SaveTeedBallOverlay(img.Mat)
			}
			bus.Publish(ipc.Message{Kind: ipc.KindArmCamera2})
		case fsm.ActionRequestCamera2PreImage:
			// camera 2 has not yet returned its pre-image; nothing is re-sent
			// here, and the watcher stays in WaitingForCamera2PreImage until
			// the pre-image message arrives.
		case fsm.ActionInstallHighFPSAndMotionStage:
			stage.Reset()
			app.Diag.Emit(diagnostics.StatusWaitingForBallHit, "armed for strike")
		case fsm.ActionPublishResultAndRearm:
			shotNumber++
			result, balls, err := analyzeLatestShot(teedBallImg, lastStrobedImage, analysisCfg, app.triggerConfig().StrobePlan, shotNumber, app.Clubs.Current())
			if err != nil {
				logger.Log.Error().Err(err).Msg("pitrac: shot analysis failed")
			} else {
				app.Diag.LogBallFulls(balls)
				publishResult(bus, sinks, result)
			}
			stage.Reset()
		case fsm.ActionReleaseAndExit:
			return nil
		case fsm.ActionReemitStatus:
			app.Diag.Emit(statusForState(watcher.State), watcher.State.String())
		}

		if prevState == fsm.WaitingForBall && watcher.State == fsm.WaitingForBallStabilization {
			go func() {
				time.Sleep(ballStabilizationDelay)
				queue.Push(fsm.Event{Kind: fsm.EventBallStabilized})
			}()
		}
	}
}

// lastStrobedImage is populated by routeWatcherMessage when camera 2
// publishes its strobed flight image; the FSM thread is the sole reader,
// keeping access single-threaded per spec.md §5.
var lastStrobedImage imagebuf.Image

func routeWatcherMessage(queue *fsm.Queue, msg ipc.Message) {
	switch msg.Kind {
	case ipc.KindCamera2PreImage:
		queue.Push(fsm.Event{Kind: fsm.EventPreImageReady, TimestampUs: nowUs()})
	case ipc.KindCamera2Image:
		if len(msg.Image) > 0 {
			if mat, err := imagebuf.DecodePNG(msg.Image, imagebuf.SourceCamera2); err == nil {
				lastStrobedImage = mat
			}
		}
		queue.Push(fsm.Event{Kind: fsm.EventCameraTriggered, TimestampUs: nowUs()})
	case ipc.KindControlMessage:
		if msg.Control != nil {
			queue.Push(fsm.Event{Kind: fsm.EventControlMessage, Control: msg.Control})
		}
	}
}

// onMotionTrigger pushes both candidate interpretations of a motion
// event; the FSM thread's own state decides which one (if either) applies,
// so the motion-detection goroutine never reads Watcher.State itself and
// the FSM stays the single writer/reader of its state, per spec.md §5.
func onMotionTrigger(queue *fsm.Queue) {
	ts := nowUs()
	queue.Push(fsm.Event{Kind: fsm.EventBallAppeared, TimestampUs: ts})
	queue.Push(fsm.Event{Kind: fsm.EventBallHit, TimestampUs: ts})
}

func statusForState(s fsm.WatcherState) diagnostics.Status {
	switch s {
	case fsm.WaitingForSimulatorArmed:
		return diagnostics.StatusWaitingForSimulatorArmed
	case fsm.WaitingForBall:
		return diagnostics.StatusWaitingForBallToAppear
	case fsm.WaitingForBallStabilization:
		return diagnostics.StatusPausingForBallStabilization
	case fsm.WaitingForCamera2PreImage:
		return diagnostics.StatusWaitingForCamera2PreImage
	case fsm.WaitingForBallHit, fsm.BallHitNowWaitingForCam2Image:
		return diagnostics.StatusWaitingForBallHit
	default:
		return diagnostics.StatusError
	}
}

// analyzeLatestShot runs the shot analyzer using the same strobe pulse
// plan the flight process actually fires (app.triggerConfig().StrobePlan),
// not a re-literalized copy of its defaults: the Δt step 7 needs matches
// whatever modes.strobe_pulse_* the operator configured, even if it
// differs from the default.
func analyzeLatestShot(teed, strobed imagebuf.Image, cfg shotanalysis.Config, plan pulseplan.Plan, shotNumber int, club clubdata.ClubType) (shotanalysis.ShotResult, []shotanalysis.BallFull, error) {
	if !teed.Valid() || !strobed.Valid() {
		return shotanalysis.ShotResult{}, nil, shotanalysis.ErrTeedBallNotFound
	}
	result, balls, err := shotanalysis.Analyze(teed, strobed, plan, cfg)
	if err != nil {
		return shotanalysis.ShotResult{}, nil, err
	}
	result.ShotNumber = shotNumber
	result.ClubType = club
	return result, balls, nil
}

func publishResult(bus *ipc.Bus, sinks []simsink.SimSink, result shotanalysis.ShotResult) {
	payload := &ipc.ResultPayload{
		ShotNumber:  result.ShotNumber,
		SpeedMPH:    result.SpeedMPH,
		VLADeg:      result.VLADeg,
		HLADeg:      result.HLADeg,
		BackSpinRPM: result.BackSpinRPM,
		SideSpinRPM: result.SideSpinRPM,
		ClubType:    result.ClubType,
	}
	bus.Publish(ipc.Message{Kind: ipc.KindResult, Result: payload})
	for _, s := range sinks {
		if err := s.SendResult(result); err != nil {
			logger.Log.Warn().Err(err).Msg("pitrac: simulator sink send failed")
		}
	}
}

// captureGrayLoop continuously reads frames from cam and feeds their
// grayscale conversion to stage, until stop is closed.
func captureGrayLoop(cam camera.Camera, stage *motiondetect.Stage, stop <-chan struct{}) {
	const assumedFrameRate = 60.0
	for {
		select {
		case <-stop:
			return
		default:
		}
		img, err := cam.Read()
		if err != nil {
			continue
		}
		gray := imagebuf.ToGray(img.Mat)
		stage.Process(gray, assumedFrameRate)
		gray.Close()
		img.Close()
	}
}

// runCamera1TestStandalone runs the camera-1 watcher loop exactly as
// runCamera1 does. It does not stand in for camera 2: the loop still waits
// for camera 2's pre-image and strobed image on the bus. A simulator is
// needed only when one is configured.
func runCamera1TestStandalone(ctx context.Context, app *App) error {
	return runCamera1(ctx, app)
}
