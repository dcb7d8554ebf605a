package simsink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pitrac/pitrac-go/internal/clubdata"
	"github.com/pitrac/pitrac-go/internal/ipc"
	"github.com/pitrac/pitrac-go/internal/logger"
	"github.com/pitrac/pitrac-go/internal/shotanalysis"
)

// e6ShotMessage is the distinct E6 wire schema spec.md §6 calls out: not
// GSPro-shaped, top-level fields only.
type e6ShotMessage struct {
	Type        string  `json:"type"`
	BallSpeed   float32 `json:"ball_speed_mph"`
	LaunchAngle float32 `json:"launch_angle_deg"`
	AzimuthAngle float32 `json:"azimuth_angle_deg"`
	BackSpin    float32 `json:"back_spin_rpm"`
	SideSpin    float32 `json:"side_spin_rpm"`
}

type e6InboundMessage struct {
	Type  string `json:"type"`
	Club  string `json:"club,omitempty"`
	Armed *bool  `json:"armed,omitempty"`
}

// E6Sink implements SimSink for the E6 wire protocol: an explicit
// arm/disarm handshake gates whether shots are accepted.
type E6Sink struct {
	addr string

	mu     sync.Mutex
	conn   net.Conn
	writer *bufio.Writer
	onClub func(ipc.ControlPayload)
	stop   chan struct{}

	armed atomic.Bool
}

func NewE6Sink(addr string, onClub func(ipc.ControlPayload)) *E6Sink {
	return &E6Sink{addr: addr, onClub: onClub}
}

func (s *E6Sink) Init() error {
	conn, err := net.Dial("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("simsink: e6 dial %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.writer = bufio.NewWriter(conn)
	s.mu.Unlock()

	s.stop = make(chan struct{})
	go s.receiveLoop(conn)
	return nil
}

func (s *E6Sink) receiveLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-s.stop:
			return
		default:
		}

		var msg e6InboundMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			logger.Log.Warn().Err(err).Msg("simsink: e6 malformed message, ignoring")
			continue
		}

		switch msg.Type {
		case "arm":
			s.armed.Store(true)
		case "disarm":
			s.armed.Store(false)
		case "club_change":
			if s.onClub != nil && msg.Club != "" {
				s.onClub(ipc.ControlPayload{
					Action:   ipc.ActionChangeClub,
					ClubType: clubTypeFromE6Name(msg.Club),
				})
			}
		}
	}
}

func clubTypeFromE6Name(name string) clubdata.ClubType {
	if name == "putter" {
		return clubdata.ClubPutter
	}
	return clubdata.ClubDriver
}

func (s *E6Sink) SendResult(ball shotanalysis.ShotResult) error {
	msg := e6ShotMessage{
		Type:         "shot",
		BallSpeed:    ball.SpeedMPH,
		LaunchAngle:  ball.VLADeg,
		AzimuthAngle: ball.HLADeg,
		BackSpin:     ball.BackSpinRPM,
		SideSpin:     ball.SideSpinRPM,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return fmt.Errorf("simsink: e6 not initialized")
	}
	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return s.writer.Flush()
}

// Armed reports whether E6 has completed its arm handshake.
func (s *E6Sink) Armed() bool {
	return s.armed.Load()
}

func (s *E6Sink) Deinit() error {
	if s.stop != nil {
		close(s.stop)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.armed.Store(false)
	return err
}
