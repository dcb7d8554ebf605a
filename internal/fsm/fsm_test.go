package fsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/clubdata"
	"github.com/pitrac/pitrac-go/internal/ipc"
)

func TestWatcherHappyPathToRearm(t *testing.T) {
	w := NewWatcher(clubdata.NewSelector(clubdata.ClubDriver))

	require.Equal(t, ActionNone, w.Step(Event{Kind: EventTimeout}))
	require.Equal(t, WaitingForSimulatorArmed, w.State)

	w.Step(Event{Kind: EventSimulatorArmed})
	require.Equal(t, WaitingForBall, w.State)

	w.Step(Event{Kind: EventBallAppeared})
	require.Equal(t, WaitingForBallStabilization, w.State)

	action := w.Step(Event{Kind: EventBallStabilized})
	require.Equal(t, ActionArmCamera2, action)
	require.Equal(t, WaitingForCamera2PreImage, w.State)

	action = w.Step(Event{Kind: EventPreImageReady})
	require.Equal(t, ActionInstallHighFPSAndMotionStage, action)
	require.Equal(t, WaitingForBallHit, w.State)

	w.Step(Event{Kind: EventBallHit})
	require.Equal(t, BallHitNowWaitingForCam2Image, w.State)

	action = w.Step(Event{Kind: EventCameraTriggered})
	require.Equal(t, ActionPublishResultAndRearm, action)
	require.Equal(t, WaitingForBall, w.State)
}

func TestWatcherShutdownFromAnyState(t *testing.T) {
	w := NewWatcher(nil)
	w.State = WaitingForBallHit

	action := w.Step(Event{Kind: EventShutdown})
	require.Equal(t, ActionReleaseAndExit, action)
	require.Equal(t, WatcherShutDown, w.State)
}

func TestWatcherControlMessageDoesNotDisturbState(t *testing.T) {
	selector := clubdata.NewSelector(clubdata.ClubDriver)
	w := NewWatcher(selector)
	w.State = WaitingForBallHit

	action := w.Step(Event{
		Kind:    EventControlMessage,
		Control: &ipc.ControlPayload{Action: ipc.ActionChangeClub, ClubType: clubdata.ClubPutter},
	})

	require.Equal(t, ActionNone, action)
	require.Equal(t, WaitingForBallHit, w.State)
	require.Equal(t, clubdata.ClubPutter, selector.Current())
}

func TestWatcherTimeoutReentersSameState(t *testing.T) {
	w := NewWatcher(nil)
	w.State = WaitingForBallHit

	action := w.Step(Event{Kind: EventTimeout})
	require.Equal(t, ActionReemitStatus, action)
	require.Equal(t, WaitingForBallHit, w.State)
}

func TestFlightHappyPath(t *testing.T) {
	f := NewFlight()
	require.Equal(t, FlightActionNone, f.Step(Event{Kind: EventTimeout}))
	require.Equal(t, WaitingForCameraArmMessage, f.State)

	action := f.Step(Event{Kind: EventCameraArmed})
	require.Equal(t, FlightActionConfigureExternalTrigger, action)
	require.Equal(t, WaitingForCameraTrigger, f.State)

	action = f.Step(Event{Kind: EventCameraTriggered})
	require.Equal(t, FlightActionCaptureAndPublishImage, action)
	require.Equal(t, WaitingForCameraArmMessage, f.State)
}

func TestFlightShutdownFromAnyState(t *testing.T) {
	f := NewFlight()
	f.State = WaitingForCameraTrigger
	action := f.Step(Event{Kind: EventShutdown})
	require.Equal(t, FlightActionReleaseAndExit, action)
	require.Equal(t, FlightShutDown, f.State)
}

func TestQueuePopTimesOut(t *testing.T) {
	q := NewQueue(1)
	_, ok := q.Pop(10 * time.Millisecond)
	require.False(t, ok)
}

func TestQueuePushPop(t *testing.T) {
	q := NewQueue(1)
	q.Push(Event{Kind: EventBallAppeared})
	e, ok := q.Pop(time.Second)
	require.True(t, ok)
	require.Equal(t, EventBallAppeared, e.Kind)
}
