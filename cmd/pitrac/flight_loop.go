package main

import (
	"context"
	"time"

	"github.com/pitrac/pitrac-go/internal/diagnostics"
	"github.com/pitrac/pitrac-go/internal/fsm"
	"github.com/pitrac/pitrac-go/internal/imagebuf"
	"github.com/pitrac/pitrac-go/internal/ipc"
	"github.com/pitrac/pitrac-go/internal/logger"
	"github.com/pitrac/pitrac-go/internal/motiondetect"
	"github.com/pitrac/pitrac-go/internal/trigger"
)

// runCamera2 drives the flight FSM: camera 2's own motion-detection stage
// stands in for the hardware interrupt line that the original system uses
// to fire the strobe with sub-50µs precision — the bus is deliberately
// never used for that signal, since broker latency would defeat the whole
// point of a dedicated GPIO trigger path. Everything the FSM otherwise
// touches (arm, pre-image, result image) still travels over the bus.
func runCamera2(ctx context.Context, app *App) error {
	cam, err := app.openCamera("cameras.camera2", "1:1280x720", imagebuf.SourceCamera2)
	if err != nil {
		return err
	}
	defer cam.Close()

	bus, err := app.connectBus("flight")
	if err != nil {
		return err
	}
	defer bus.Close()

	queue := fsm.NewQueue(64)
	flight := fsm.NewFlight()
	trig := trigger.New(app.triggerConfig())

	if err := bus.Subscribe(func(msg ipc.Message) { routeFlightMessage(queue, msg) }); err != nil {
		return err
	}

	stage := motiondetect.New(app.motionConfig(), func() {
		queue.Push(fsm.Event{Kind: fsm.EventCameraTriggered, TimestampUs: nowUs()})
	})
	defer stage.Close()

	stopCapture := make(chan struct{})
	go captureGrayLoop(cam, stage, stopCapture)
	defer close(stopCapture)

	for {
		select {
		case <-ctx.Done():
			queue.Push(fsm.Event{Kind: fsm.EventShutdown})
		default:
		}

		e, ok := queue.Pop(500 * time.Millisecond)
		if !ok {
			e = fsm.Event{Kind: fsm.EventTimeout}
		}

		switch flight.Step(e) {
		case fsm.FlightActionConfigureExternalTrigger:
			if err := trig.Init(); err != nil {
				logger.Log.Error().Err(err).Msg("pitrac: trigger controller init failed")
				continue
			}
			if err := trig.SendPrimingPulses(false); err != nil {
				logger.Log.Warn().Err(err).Msg("pitrac: priming pulses failed")
			}
			publishPreImage(cam, bus, app)
			stage.Reset()
		case fsm.FlightActionCaptureAndPublishImage:
			if err := trig.SendTrigger(); err != nil {
				logger.Log.Warn().Err(err).Msg("pitrac: trigger pulse failed")
			}
			publishStrobedImage(cam, bus, app)
			stage.Reset()
		case fsm.FlightActionReleaseAndExit:
			trig.Deinit()
			return nil
		case fsm.FlightActionReemitStatus:
			app.Diag.Emit(diagnostics.StatusWaitingForCamera2PreImage, flight.State.String())
		}
	}
}

func routeFlightMessage(queue *fsm.Queue, msg ipc.Message) {
	switch msg.Kind {
	case ipc.KindArmCamera2:
		queue.Push(fsm.Event{Kind: fsm.EventCameraArmed, TimestampUs: nowUs()})
	case ipc.KindShutdown:
		queue.Push(fsm.Event{Kind: fsm.EventShutdown, TimestampUs: nowUs()})
	case ipc.KindControlMessage:
		if msg.Control != nil {
			queue.Push(fsm.Event{Kind: fsm.EventControlMessage, Control: msg.Control})
		}
	}
}

func publishPreImage(cam interface {
	Read() (imagebuf.Image, error)
}, bus *ipc.Bus, app *App) {
	img, err := cam.Read()
	if err != nil {
		logger.Log.Warn().Err(err).Msg("pitrac: pre-image capture failed")
		return
	}
	defer img.Close()
	app.Diag.SavePreImage(img.Mat)

	data, err := imagebuf.EncodePNG(img)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("pitrac: pre-image encode failed")
		return
	}
	bus.Publish(ipc.Message{Kind: ipc.KindCamera2PreImage, Image: data})
}

func publishStrobedImage(cam interface {
	Read() (imagebuf.Image, error)
}, bus *ipc.Bus, app *App) {
	img, err := cam.Read()
	if err != nil {
		logger.Log.Warn().Err(err).Msg("pitrac: strobed image capture failed")
		return
	}
	defer img.Close()
	app.Diag.SaveStrobedFlightOverlay(img.Mat)

	data, err := imagebuf.EncodePNG(img)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("pitrac: strobed image encode failed")
		return
	}
	bus.Publish(ipc.Message{Kind: ipc.KindCamera2Image, Image: data})
}
