package main

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/pitrac/pitrac-go/internal/balldetect"
	"github.com/pitrac/pitrac-go/internal/camera"
	"github.com/pitrac/pitrac-go/internal/clubdata"
	"github.com/pitrac/pitrac-go/internal/config"
	"github.com/pitrac/pitrac-go/internal/diagnostics"
	"github.com/pitrac/pitrac-go/internal/geometry"
	"github.com/pitrac/pitrac-go/internal/imagebuf"
	"github.com/pitrac/pitrac-go/internal/ipc"
	"github.com/pitrac/pitrac-go/internal/logger"
	"github.com/pitrac/pitrac-go/internal/motiondetect"
	"github.com/pitrac/pitrac-go/internal/pulseplan"
	"github.com/pitrac/pitrac-go/internal/shotanalysis"
	"github.com/pitrac/pitrac-go/internal/simsink"
	"github.com/pitrac/pitrac-go/internal/spinsolve"
	"github.com/pitrac/pitrac-go/internal/trigger"
)

// defaultConfigYAML backs every subcommand when -config is not given, so
// standalone diagnostic modes (pulse_test, ball_location, ...) work against
// a bench setup without requiring an operator to hand-author a document
// first.
const defaultConfigYAML = `
logging:
  dir: /tmp/pitrac
cameras:
  camera1:
    device: "0:1280x720"
  camera2:
    device: "1:1280x720"
  ball_radius_m: 0.02135
  focal_length_mm: 6.0
  sensor_mm_per_px: 0.0024
  golfer_handedness: right
ipc_interface:
  bus_url: "nats://127.0.0.1:4222"
  subject: "pitrac.bus"
  codec: json
modes:
  shutter_gpio_pin: 529
  strobe_gpio_pin: 530
  priming_pulse_count: 10
  priming_pulse_high_us: 100
  priming_pulse_low_us: 900
  strobe_pulse_count: 8
  strobe_pulse_high_us: 50
  strobe_pulse_low_us: 950
club_data:
  initial: driver
`

// Options carries every CLI flag spec.md §6 lists.
type Options struct {
	ConfigPath    string
	LogDir        string
	SimHost       string
	Gain          float64
	SearchCenterX int
	SearchCenterY int
	HasSearchCenter bool
	PuttingMode   bool
	SingleProcess bool
	Verbosity     int
}

// App bundles the process-wide context spec.md §9's "Global state" design
// note asks for: a config store, a club selector and a diagnostics
// aggregator, all constructed once and passed down explicitly.
type App struct {
	Opts   Options
	Config *config.Store
	Clubs  *clubdata.Selector
	Diag   *diagnostics.Aggregator
}

func newApp(opts Options) (*App, error) {
	var store *config.Store
	var err error
	if opts.ConfigPath != "" {
		store, err = config.Load(opts.ConfigPath)
	} else {
		store, err = config.LoadBytes([]byte(defaultConfigYAML))
	}
	if err != nil {
		return nil, fmt.Errorf("pitrac: load config: %w", err)
	}

	logger.SetLevel(opts.Verbosity)

	logDir := opts.LogDir
	if logDir == "" {
		logDir = store.GetString("logging.dir", "/tmp/pitrac")
	}

	initialClub := clubdata.ClubDriver
	if opts.PuttingMode {
		initialClub = clubdata.ClubPutter
	} else if store.GetString("club_data.initial", "driver") == "putter" {
		initialClub = clubdata.ClubPutter
	}

	diag := diagnostics.New(logDir, nil, nil)

	return &App{Opts: opts, Config: store, Clubs: clubdata.NewSelector(initialClub), Diag: diag}, nil
}

func (a *App) openCamera(key, defaultDevice string, source imagebuf.SourceTag) (camera.Camera, error) {
	device := a.Config.GetString(key+".device", defaultDevice)
	cfg, err := camera.ParseConfig(device, 1280, 720)
	if err != nil {
		return nil, err
	}
	if a.Opts.Gain > 0 {
		// Gain is a driver-level property outside this package's scope;
		// recorded so operators can see it was requested.
		logger.Log.Info().Float64("gain", a.Opts.Gain).Msg("pitrac: camera gain override requested")
	}
	return camera.Open(cfg, source)
}

func (a *App) connectBus(role string) (*ipc.Bus, error) {
	url := a.Config.GetString("ipc_interface.bus_url", "nats://127.0.0.1:4222")
	subject := a.Config.GetString("ipc_interface.subject", "pitrac.bus")
	senderID := role + "-" + uuid.NewString()

	codec := ipc.Codec(ipc.JSONCodec{})
	if a.Config.GetString("ipc_interface.codec", "json") == "proto" {
		codec = ipc.ProtoCodec{}
	}
	return ipc.ConnectWithCodec(url, subject, senderID, codec)
}

func (a *App) shotAnalysisConfig() shotanalysis.Config {
	golfer := shotanalysis.RightHanded
	if a.Config.GetString("cameras.golfer_handedness", "right") == "left" {
		golfer = shotanalysis.LeftHanded
	}

	ballParams := balldetect.DefaultParams()
	strobedParams := balldetect.DefaultParams()
	if a.Opts.HasSearchCenter {
		center := imagePoint(a.Opts.SearchCenterX, a.Opts.SearchCenterY)
		ballParams.ExpectedCenter = center
		strobedParams.ExpectedCenter = center
	}

	return shotanalysis.Config{
		BallRadiusM:      float32(a.Config.GetFloat("cameras.ball_radius_m", 0.02135)),
		FocalLengthMM:    float32(a.Config.GetFloat("cameras.focal_length_mm", 6.0)),
		SensorMMPerPx:    float32(a.Config.GetFloat("cameras.sensor_mm_per_px", 0.0024)),
		Intrinsics:       a.Config.GetMatrix3x3("cameras.intrinsics", geometry.Identity3x3()),
		TwoCameraOffsetM: a.Config.GetVector3("cameras.two_camera_offset_m", geometry.Vec3{0.35, 0, 0}),
		Golfer:           golfer,
		BallParams:       ballParams,
		StrobedParams:    strobedParams,
		ExpectedStrobeN:  a.Config.GetInt("cameras.expected_strobe_count", 3),
		SpinConfig:       spinsolve.DefaultConfig(),
	}
}

func (a *App) motionConfig() motiondetect.Config {
	cfg := motiondetect.DefaultConfig()
	cfg.ROIX = a.Config.GetInt("motion_detect_stage.roi_x", 0)
	cfg.ROIY = a.Config.GetInt("motion_detect_stage.roi_y", 0)
	cfg.ROIW = a.Config.GetInt("motion_detect_stage.roi_w", 0)
	cfg.ROIH = a.Config.GetInt("motion_detect_stage.roi_h", 0)
	cfg.HSkip = a.Config.GetInt("motion_detect_stage.hskip", cfg.HSkip)
	cfg.VSkip = a.Config.GetInt("motion_detect_stage.vskip", cfg.VSkip)
	cfg.DifferenceM = float32(a.Config.GetFloat("motion_detect_stage.difference_m", float64(cfg.DifferenceM)))
	cfg.DifferenceC = float32(a.Config.GetFloat("motion_detect_stage.difference_c", float64(cfg.DifferenceC)))
	cfg.RegionThreshold = float32(a.Config.GetFloat("motion_detect_stage.region_threshold", float64(cfg.RegionThreshold)))
	cfg.FramePeriod = a.Config.GetInt("motion_detect_stage.frame_period", cfg.FramePeriod)
	cfg.PostMotionFrames = a.Config.GetInt("motion_detect_stage.post_motion_frames", cfg.PostMotionFrames)
	cfg.RingBufferSize = a.Config.GetInt("motion_detect_stage.ring_buffer_size", cfg.RingBufferSize)
	return cfg
}

func (a *App) triggerConfig() trigger.Config {
	return trigger.Config{
		ShutterPin:  a.Config.GetInt("modes.shutter_gpio_pin", 529),
		StrobePin:   a.Config.GetInt("modes.strobe_gpio_pin", 530),
		PrimingPlan: buildUniformPlan(a.Config.GetInt("modes.priming_pulse_count", 10), a.Config.GetInt("modes.priming_pulse_high_us", 100), a.Config.GetInt("modes.priming_pulse_low_us", 900)),
		HighFPSPlan: buildUniformPlan(a.Config.GetInt("modes.priming_pulse_count", 10), a.Config.GetInt("modes.high_fps_priming_pulse_high_us", 50), a.Config.GetInt("modes.high_fps_priming_pulse_low_us", 450)),
		StrobePlan:  buildUniformPlan(a.Config.GetInt("modes.strobe_pulse_count", 8), a.Config.GetInt("modes.strobe_pulse_high_us", 50), a.Config.GetInt("modes.strobe_pulse_low_us", 950)),
	}
}

func (a *App) buildSimSinks() []simsink.SimSink {
	var sinks []simsink.SimSink
	onClub := func(ctrl ipc.ControlPayload) { a.Clubs.Set(ctrl.ClubType) }

	host := a.Opts.SimHost
	if addr := a.Config.GetString("golf_simulator_interfaces.gspro.address", ""); addr != "" || host != "" {
		target := addr
		if host != "" {
			target = host
		}
		deviceID := a.Config.GetString("golf_simulator_interfaces.gspro.device_id", "PiTrac")
		sinks = append(sinks, simsink.NewGSProSink(target, deviceID, onClub))
	}
	if addr := a.Config.GetString("golf_simulator_interfaces.e6.address", ""); addr != "" {
		sinks = append(sinks, simsink.NewE6Sink(addr, onClub))
	}
	return sinks
}

func buildUniformPlan(count, highUs, lowUs int) pulseplan.Plan {
	if count <= 0 {
		return nil
	}
	plan := make(pulseplan.Plan, count)
	for i := range plan {
		plan[i] = pulseplan.Pulse{HighUs: highUs, LowUs: lowUs}
	}
	return plan
}

func imagePoint(x, y int) image.Point { return image.Pt(x, y) }

func nowUs() int64 { return time.Now().UnixMicro() }
