package fsm

// FlightState enumerates the camera-2 process states from spec.md §4.7.
type FlightState int

const (
	InitializingCamera2System FlightState = iota
	WaitingForCameraArmMessage
	WaitingForCameraTrigger
	FlightShutDown
)

func (s FlightState) String() string {
	switch s {
	case InitializingCamera2System:
		return "InitializingCamera2System"
	case WaitingForCameraArmMessage:
		return "WaitingForCameraArmMessage"
	case WaitingForCameraTrigger:
		return "WaitingForCameraTrigger"
	default:
		return "FlightShutDown"
	}
}

// FlightAction is the side effect the caller must perform after Step
// returns.
type FlightAction int

const (
	FlightActionNone FlightAction = iota
	FlightActionConfigureExternalTrigger
	FlightActionCaptureAndPublishImage
	FlightActionReleaseAndExit
	FlightActionReemitStatus
)

// Flight is the camera-2 state machine.
type Flight struct {
	State FlightState
}

func NewFlight() *Flight {
	return &Flight{State: InitializingCamera2System}
}

// Step consumes exactly one event and returns the resulting action.
func (f *Flight) Step(e Event) FlightAction {
	if e.Kind == EventShutdown {
		f.State = FlightShutDown
		return FlightActionReleaseAndExit
	}
	if e.Kind == EventControlMessage {
		return FlightActionNone
	}
	if e.Kind == EventTimeout && f.State != InitializingCamera2System {
		return FlightActionReemitStatus
	}

	switch f.State {
	case InitializingCamera2System:
		f.State = WaitingForCameraArmMessage
		return FlightActionNone
	case WaitingForCameraArmMessage:
		if e.Kind == EventCameraArmed {
			f.State = WaitingForCameraTrigger
			return FlightActionConfigureExternalTrigger
		}
		return FlightActionNone
	case WaitingForCameraTrigger:
		if e.Kind == EventCameraTriggered {
			f.State = WaitingForCameraArmMessage
			return FlightActionCaptureAndPublishImage
		}
		return FlightActionNone
	default:
		return FlightActionNone
	}
}
