// Command pitrac is the launch-monitor entry point: a mode selector over
// the camera-1 watcher process, the camera-2 flight process, and a set of
// standalone diagnostic and testing modes, dispatched the way the
// teacher's cmd/spectrometer/main.go dispatches its subcommands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pitrac/pitrac-go/internal/logger"
)

var (
	verbose = flag.Int("v", 0, "log verbosity (0=ERROR 1=WARN 2=INFO 3=DEBUG 4=TRACE)")
	vv      = flag.Bool("vv", false, "shortcut for -v=4")

	configPath    = flag.String("config", "", "path to the YAML config document")
	logDir        = flag.String("log-dir", "", "override logging.dir from the config document")
	simHost       = flag.String("sim-host", "", "override the configured simulator host:port")
	gain          = flag.Float64("gain", 0, "camera gain override (logged only; not applied to the camera)")
	searchCenter  = flag.String("search-center", "", "ball search center override, \"x,y\"")
	puttingMode   = flag.Bool("putting-mode", false, "start with the putting-mode club selected")
	singleProcess = flag.Bool("single-process", false, "with the camera1 mode, also run the camera2 loop in this process")
)

func main() {
	verboseCount := 0
	hasVV := false
	for _, arg := range os.Args {
		if arg == "-v" {
			verboseCount++
		} else if arg == "-vv" {
			hasVV = true
		}
	}

	flag.Parse()

	level := *verbose
	if hasVV {
		level = 4
	} else if *verbose == 0 && verboseCount > 0 {
		level = verboseCount
	}
	logger.SetLevel(level)

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	opts := Options{
		ConfigPath:    *configPath,
		LogDir:        *logDir,
		SimHost:       *simHost,
		Gain:          *gain,
		PuttingMode:   *puttingMode,
		SingleProcess: *singleProcess,
		Verbosity:     level,
	}
	if *searchCenter != "" {
		x, y, err := parseSearchCenter(*searchCenter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pitrac: %v\n", err)
			os.Exit(1)
		}
		opts.SearchCenterX, opts.SearchCenterY, opts.HasSearchCenter = x, y, true
	}

	app, err := newApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pitrac: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := args[0]
	switch command {
	case "camera1":
		if app.Opts.SingleProcess {
			go func() {
				if err := runCamera2(ctx, app); err != nil {
					logger.Log.Error().Err(err).Str("mode", "camera2").Msg("pitrac: mode exited with error")
				}
			}()
		}
		err = runCamera1(ctx, app)
	case "camera2":
		err = runCamera2(ctx, app)
	case "camera1_test_standalone":
		err = runCamera1TestStandalone(ctx, app)
	case "camera1_ball_location":
		err = runCamera1BallLocation(app)
	case "camera1_calibrate":
		err = runCameraCalibrate(app, "cameras.camera1", "0:1280x720")
	case "camera2_auto_calibrate":
		err = runCameraCalibrate(app, "cameras.camera2", "1:1280x720")
	case "test_gspro_server":
		err = runTestGSProServer(ctx, app)
	case "shutdown":
		err = runShutdown(app)
	case "send_test_results":
		err = runSendTestResults(ctx, app)
	case "pulse_test":
		err = runPulseTest(app)
	case "automated_testing":
		err = runAutomatedTesting(app)
	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "pitrac: unknown mode %q\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Log.Error().Err(err).Str("mode", command).Msg("pitrac: mode exited with error")
		os.Exit(1)
	}
}

func parseSearchCenter(s string) (int, int, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid -search-center %q (expected \"x,y\")", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -search-center x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -search-center y: %w", err)
	}
	return x, y, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: pitrac <mode> [options]

Modes:
  camera1                     Run the camera-1 watcher process
  camera2                     Run the camera-2 flight process
  camera1_test_standalone     Run the camera-1 watcher loop (same loop as camera1)
  camera1_ball_location       Report the teed-ball location from one camera-1 frame
  camera1_calibrate           Derive focal length from a ball at a known distance
  camera2_auto_calibrate      Same as camera1_calibrate, against camera 2
  test_gspro_server           Run a local GSPro-protocol test server
  shutdown                    Publish a Shutdown IPC message and exit
  send_test_results           Inject a configured list of shot records
  pulse_test                  Exercise the strobe/trigger controller once
  automated_testing           Replay a labeled image suite through the shot analyzer

Common flags:
  -v=N                        Log verbosity (0=ERROR 1=WARN 2=INFO 3=DEBUG 4=TRACE)
  -vv                         Shortcut for -v=4
  -config PATH                Config document path
  -log-dir DIR                Override the configured logging directory
  -sim-host HOST:PORT         Override the configured simulator host
  -gain N                     Camera gain override (logged only; not applied to the camera)
  -search-center "x,y"        Ball search center override
  -putting-mode               Start with the putting-mode club selected
  -single-process              With camera1, also run the camera2 loop in one process
`)
}
