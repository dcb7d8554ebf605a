// Package simsink implements C9: simulator sink endpoints (GSPro-style and
// E6-style), each a TCP client that serializes shot results to the
// endpoint's wire schema and translates inbound JSON into ControlMessage
// events (spec.md §4.9, §6).
package simsink

import "github.com/pitrac/pitrac-go/internal/shotanalysis"

// SimSink is the capability every configured simulator endpoint
// implements.
type SimSink interface {
	// Init opens the TCP connection and starts the receiver goroutine.
	Init() error
	// SendResult serializes ball to the endpoint's JSON schema and writes
	// it.
	SendResult(ball shotanalysis.ShotResult) error
	// Armed reports whether the endpoint will currently accept a shot.
	// GSPro is armed whenever connected; E6 requires a prior arm handshake.
	Armed() bool
	// Deinit closes the connection and stops the receiver goroutine.
	Deinit() error
}

// AllArmed implements spec.md §4.9's "the shot flow gates on
// all_sinks_armed() before accepting a hit".
func AllArmed(sinks []SimSink) bool {
	for _, s := range sinks {
		if !s.Armed() {
			return false
		}
	}
	return true
}
