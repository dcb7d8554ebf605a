package fsm

import "github.com/pitrac/pitrac-go/internal/clubdata"

// WatcherState enumerates the camera-1 process states from spec.md §4.7.
type WatcherState int

const (
	InitializingCamera1System WatcherState = iota
	WaitingForSimulatorArmed
	WaitingForBall
	WaitingForBallStabilization
	WaitingForCamera2PreImage
	WaitingForBallHit
	BallHitNowWaitingForCam2Image
	WatcherShutDown
)

func (s WatcherState) String() string {
	switch s {
	case InitializingCamera1System:
		return "InitializingCamera1System"
	case WaitingForSimulatorArmed:
		return "WaitingForSimulatorArmed"
	case WaitingForBall:
		return "WaitingForBall"
	case WaitingForBallStabilization:
		return "WaitingForBallStabilization"
	case WaitingForCamera2PreImage:
		return "WaitingForCamera2PreImage"
	case WaitingForBallHit:
		return "WaitingForBallHit"
	case BallHitNowWaitingForCam2Image:
		return "BallHitNowWaitingForCam2Image"
	default:
		return "WatcherShutDown"
	}
}

// WatcherAction is the side effect the caller must perform after Step
// returns; the state machine itself never touches hardware or the bus.
type WatcherAction int

const (
	ActionNone WatcherAction = iota
	ActionArmCamera2
	ActionInstallBallStabilizationWatch
	ActionRequestCamera2PreImage
	ActionInstallHighFPSAndMotionStage
	ActionPublishResultAndRearm
	ActionReleaseAndExit
	ActionReemitStatus
)

// Watcher is the camera-1 state machine. It is not safe for concurrent
// use; Step must only ever be called from the FSM thread.
type Watcher struct {
	State  WatcherState
	Clubs  *clubdata.Selector
}

func NewWatcher(clubs *clubdata.Selector) *Watcher {
	return &Watcher{State: InitializingCamera1System, Clubs: clubs}
}

// Step consumes exactly one event and returns the resulting action, per
// spec.md §4.7's transition rule. Shutdown and ControlMessage{ChangeClub}
// are accepted in any state without disturbing the rest of the machine.
func (w *Watcher) Step(e Event) WatcherAction {
	if e.Kind == EventShutdown {
		w.State = WatcherShutDown
		return ActionReleaseAndExit
	}
	if e.Kind == EventControlMessage && e.Control != nil && e.Control.Action == "ChangeClub" {
		if w.Clubs != nil {
			w.Clubs.Set(e.Control.ClubType)
		}
		return ActionNone
	}
	if e.Kind == EventTimeout && w.State != InitializingCamera1System {
		return ActionReemitStatus
	}

	switch w.State {
	case InitializingCamera1System:
		w.State = WaitingForSimulatorArmed
		return ActionNone
	case WaitingForSimulatorArmed:
		if e.Kind == EventSimulatorArmed {
			w.State = WaitingForBall
		}
		return ActionNone
	case WaitingForBall:
		if e.Kind == EventBallAppeared {
			w.State = WaitingForBallStabilization
		}
		return ActionNone
	case WaitingForBallStabilization:
		if e.Kind == EventBallStabilized {
			w.State = WaitingForCamera2PreImage
			return ActionArmCamera2
		}
		return ActionNone
	case WaitingForCamera2PreImage:
		if e.Kind == EventPreImageReady {
			w.State = WaitingForBallHit
			return ActionInstallHighFPSAndMotionStage
		}
		return ActionRequestCamera2PreImage
	case WaitingForBallHit:
		if e.Kind == EventBallHit {
			w.State = BallHitNowWaitingForCam2Image
		}
		return ActionNone
	case BallHitNowWaitingForCam2Image:
		if e.Kind == EventCameraTriggered {
			w.State = WaitingForBall
			return ActionPublishResultAndRearm
		}
		return ActionNone
	default:
		return ActionNone
	}
}
