package simsink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/chewxy/math32"

	"github.com/pitrac/pitrac-go/internal/clubdata"
	"github.com/pitrac/pitrac-go/internal/geometry"
	"github.com/pitrac/pitrac-go/internal/ipc"
	"github.com/pitrac/pitrac-go/internal/logger"
	"github.com/pitrac/pitrac-go/internal/shotanalysis"
)

// gsProBallData is the BallData child object spec.md §6 specifies. GSPro's
// wire protocol (https://gsprogolf.com/GSProConnectV1.html) puts every value
// as a quoted one-decimal string rather than a bare JSON number, matching
// GsGSProResults::Format's FormatDoubleAsString calls.
type gsProBallData struct {
	Speed     string `json:"Speed"`
	SpinAxis  string `json:"SpinAxis"`
	TotalSpin string `json:"TotalSpin"`
	BackSpin  string `json:"BackSpin"`
	SideSpin  string `json:"SideSpin"`
	HLA       string `json:"HLA"`
	VLA       string `json:"VLA"`
}

// gsProClubData is always sent as zeros; GSPro reads club speed from its
// own club-tracking hardware, not the launch monitor. Format's club_data_child
// puts every field as the literal string "0.0", so this struct does the same.
type gsProClubData struct {
	Speed string `json:"Speed"`
}

// formatGSProFloat renders x with one decimal place, the Go-module
// counterpart of FormatDoubleAsString.
func formatGSProFloat(x float32) string {
	return strconv.FormatFloat(float64(x), 'f', 1, 32)
}

type gsProShotOptions struct {
	ContainsBallData          bool `json:"ContainsBallData"`
	ContainsClubData          bool `json:"ContainsClubData"`
	LaunchMonitorIsReady      bool `json:"LaunchMonitorIsReady"`
	LaunchMonitorBallDetected bool `json:"LaunchMonitorBallDetected"`
	IsHeartBeat               bool `json:"IsHeartBeat"`
}

type gsProMessage struct {
	DeviceID        string           `json:"DeviceID"`
	Units           string           `json:"Units"`
	ShotNumber      int              `json:"ShotNumber"`
	APIversion      string           `json:"APIversion"`
	BallData        gsProBallData    `json:"BallData"`
	ClubData        gsProClubData    `json:"ClubData"`
	ShotDataOptions gsProShotOptions `json:"ShotDataOptions"`
}

// gsProResponse is the inbound player-information message; its Club field
// drives club-change events.
type gsProResponse struct {
	Player struct {
		Club string `json:"Club"`
	} `json:"Player"`
}

// GSProSink implements SimSink for the GSPro wire protocol: newline
// delimited JSON, always armed, no handshake.
type GSProSink struct {
	addr     string
	deviceID string

	mu      sync.Mutex
	conn    net.Conn
	writer  *bufio.Writer
	onClub  func(ipc.ControlPayload)
	stop    chan struct{}
	shotNum int
}

func NewGSProSink(addr, deviceID string, onClub func(ipc.ControlPayload)) *GSProSink {
	return &GSProSink{addr: addr, deviceID: deviceID, onClub: onClub}
}

func (s *GSProSink) Init() error {
	conn, err := net.Dial("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("simsink: gspro dial %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.writer = bufio.NewWriter(conn)
	s.mu.Unlock()

	s.stop = make(chan struct{})
	go s.receiveLoop(conn)
	return nil
}

func (s *GSProSink) receiveLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-s.stop:
			return
		default:
		}

		var resp gsProResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			logger.Log.Warn().Err(err).Msg("simsink: gspro malformed response, ignoring")
			continue
		}
		if resp.Player.Club == "" || s.onClub == nil {
			continue
		}
		s.onClub(ipc.ControlPayload{
			Action:   ipc.ActionChangeClub,
			ClubType: clubTypeFromGSProName(resp.Player.Club),
		})
	}
}

func clubTypeFromGSProName(name string) clubdata.ClubType {
	if name == "PT" {
		return clubdata.ClubPutter
	}
	return clubdata.ClubDriver
}

// SendResult serializes ball to the GSPro schema and writes one
// newline-terminated JSON object.
func (s *GSProSink) SendResult(ball shotanalysis.ShotResult) error {
	s.shotNum++
	msg := gsProMessage{
		DeviceID:   s.deviceID,
		Units:      "Yards",
		ShotNumber: s.shotNum,
		APIversion: "1",
		BallData: gsProBallData{
			Speed:     formatGSProFloat(ball.SpeedMPH),
			SpinAxis:  formatGSProFloat(spinAxisDeg(ball.BackSpinRPM, ball.SideSpinRPM)),
			TotalSpin: "0.0",
			BackSpin:  formatGSProFloat(ball.BackSpinRPM),
			SideSpin:  formatGSProFloat(ball.SideSpinRPM),
			HLA:       formatGSProFloat(ball.HLADeg),
			VLA:       formatGSProFloat(ball.VLADeg),
		},
		ClubData: gsProClubData{Speed: "0.0"},
		ShotDataOptions: gsProShotOptions{
			ContainsBallData:          true,
			ContainsClubData:          false,
			LaunchMonitorIsReady:      true,
			LaunchMonitorBallDetected: true,
		},
	}
	return s.writeLine(msg)
}

// SendHeartbeat emits the keep-alive shape: same message, IsHeartBeat
// true, ContainsBallData false.
func (s *GSProSink) SendHeartbeat() error {
	msg := gsProMessage{
		DeviceID:   s.deviceID,
		Units:      "Yards",
		APIversion: "1",
		ShotDataOptions: gsProShotOptions{
			ContainsBallData:     false,
			LaunchMonitorIsReady: true,
			IsHeartBeat:          true,
		},
	}
	return s.writeLine(msg)
}

func (s *GSProSink) writeLine(msg gsProMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return fmt.Errorf("simsink: gspro not initialized")
	}
	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return s.writer.Flush()
}

// Armed reports true whenever the sink is connected: GSPro needs no arm
// handshake.
func (s *GSProSink) Armed() bool {
	return s.conn != nil
}

func (s *GSProSink) Deinit() error {
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
	return err
}

// spinAxisDeg derives the GSPro SpinAxis tilt from back/side spin. The
// original's GsResults::GetSpinAxis body isn't in the source pack (only its
// gs_results.h declaration is); this is the standard backspin/sidespin tilt
// angle, positive for positive (rightward) side spin.
func spinAxisDeg(backSpinRPM, sideSpinRPM float32) float32 {
	if backSpinRPM == 0 && sideSpinRPM == 0 {
		return 0
	}
	return geometry.RadToDeg(math32.Atan2(sideSpinRPM, backSpinRPM))
}
