// Package clubdata holds the club-type selector shared between the FSM and
// the simulator sinks. It is process-wide but either frozen or atomically
// updated, per spec.md §9's "Global state" design note: modeled as an
// explicit context value rather than a package-level mutable global.
package clubdata

import "sync/atomic"

// ClubType mirrors the original implementation's GsClubType enum, which
// only ever distinguishes the putting-mode camera config from the full
// swing config (spec.md §6's -putting-mode flag).
type ClubType int32

const (
	ClubNotSelected ClubType = iota
	ClubDriver
	ClubPutter
)

func (c ClubType) String() string {
	switch c {
	case ClubDriver:
		return "driver"
	case ClubPutter:
		return "putter"
	default:
		return "unselected"
	}
}

// Selector is the atomically-updated current-club state, constructed once
// per process and shared by reference between the FSM and the simulator
// sinks' inbound ControlMessage handlers.
type Selector struct {
	club atomic.Int32
}

func NewSelector(initial ClubType) *Selector {
	s := &Selector{}
	s.club.Store(int32(initial))
	return s
}

func (s *Selector) Current() ClubType {
	return ClubType(s.club.Load())
}

func (s *Selector) Set(c ClubType) {
	s.club.Store(int32(c))
}

// StrikeImageConfig carries the club-strike diagnostic parameters from the
// original gs_club_data.h: the crop used to capture pre/post-hit frames and
// how many of each to retain.
type StrikeImageConfig struct {
	Enabled             bool
	WidthPx, HeightPx   int
	FramesBeforeHit     int
	FramesAfterHit      int
	CameraGain          float32
	ShutterSpeedFactor  float32
}

func DefaultStrikeImageConfig() StrikeImageConfig {
	return StrikeImageConfig{
		WidthPx:            200,
		HeightPx:           150,
		FramesBeforeHit:    4,
		FramesAfterHit:     4,
		CameraGain:         30.0,
		ShutterSpeedFactor: 0.4,
	}
}
