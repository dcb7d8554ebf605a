// Package fsm implements C7: the two independent state machines, one per
// process, each driven by a single-consumer event queue (spec.md §4.7).
package fsm

import (
	"time"

	"github.com/pitrac/pitrac-go/internal/ipc"
)

// EventKind enumerates the events either state machine consumes.
type EventKind string

const (
	EventSimulatorArmed    EventKind = "SimulatorArmed"
	EventBallAppeared      EventKind = "BallAppeared"
	EventBallStabilized    EventKind = "BallStabilized"
	EventPreImageReady     EventKind = "PreImageReady"
	EventBallHit           EventKind = "BallHit"
	EventCameraArmed       EventKind = "CameraArmed"
	EventCameraTriggered   EventKind = "CameraTriggered"
	EventResultPublished   EventKind = "ResultPublished"
	EventTimeout           EventKind = "Timeout"
	EventShutdown          EventKind = "Shutdown"
	EventControlMessage    EventKind = "ControlMessage"
)

// Event is a single, timestamped state-machine input. Control carries the
// ControlMessage payload when Kind is EventControlMessage.
type Event struct {
	Kind        EventKind
	TimestampUs int64
	Control     *ipc.ControlPayload
}

// Queue is a single-consumer, multi-producer event queue. Producers
// (the IPC consumer thread, the motion-detection callback, timers) push
// without blocking; the FSM thread is the sole consumer and blocks with a
// timeout.
type Queue struct {
	ch chan Event
}

func NewQueue(buffer int) *Queue {
	return &Queue{ch: make(chan Event, buffer)}
}

// Push enqueues an event without blocking; producers must never be
// slowed down by a busy FSM thread.
func (q *Queue) Push(e Event) {
	select {
	case q.ch <- e:
	default:
		// Queue full: drop the oldest-pending event's producer guarantee
		// trades backpressure for boundedness; callers size the buffer to
		// the event volume they expect.
		<-q.ch
		q.ch <- e
	}
}

// Pop blocks for up to timeout waiting for the next event. ok is false on
// timeout, in which case callers re-enter their current state and emit a
// status update, per spec.md §4.7's transition rule.
func (q *Queue) Pop(timeout time.Duration) (Event, bool) {
	select {
	case e := <-q.ch:
		return e, true
	case <-time.After(timeout):
		return Event{}, false
	}
}
