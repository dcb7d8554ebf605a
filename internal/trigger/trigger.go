// Package trigger implements C6: the strobe/trigger controller that owns
// the camera-2 external shutter line and the strobe illumination driver
// (spec.md §4.6).
package trigger

import (
	"errors"
	"runtime"
	"time"

	"github.com/pitrac/pitrac-go/internal/gpio"
	"github.com/pitrac/pitrac-go/internal/pulseplan"
)

// ErrNotInitialized is returned by SendTrigger/SendPrimingPulses when Init
// has not yet been called; Deinit on an uninitialized controller returns nil.
var ErrNotInitialized = errors.New("trigger: controller not initialized")

// Config bundles the GPIO line numbers and pulse trains.
type Config struct {
	ShutterPin int
	StrobePin  int

	// PrimingPlan is the short warm-up train emitted once after camera 2
	// is armed; SendPrimingPulses uses PrimingPlan, or HighFPSPlan when
	// its argument is true.
	PrimingPlan   pulseplan.Plan
	HighFPSPlan   pulseplan.Plan
	StrobePlan    pulseplan.Plan
}

// Controller drives the shutter and strobe GPIO lines with busy-wait pulse
// timing, meeting the <50µs edge-jitter requirement spec.md §4.6 sets.
type Controller struct {
	cfg     Config
	shutter gpio.Pin
	strobe  gpio.Pin
	init    bool
}

func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Init configures the GPIO lines. Must be called before SendTrigger or
// SendPrimingPulses.
func (c *Controller) Init() error {
	shutter, err := gpio.NewPin(c.cfg.ShutterPin)
	if err != nil {
		return err
	}
	strobe, err := gpio.NewPin(c.cfg.StrobePin)
	if err != nil {
		shutter.Close()
		return err
	}
	c.shutter = shutter
	c.strobe = strobe
	c.init = true
	return nil
}

// SendPrimingPulses emits a short warm-up train on the strobe line so the
// downstream camera/strobe hardware settles before the first real trigger.
// Called once after camera 2 is armed.
func (c *Controller) SendPrimingPulses(highFPSMode bool) error {
	if !c.init {
		return ErrNotInitialized
	}
	plan := c.cfg.PrimingPlan
	if highFPSMode {
		plan = c.cfg.HighFPSPlan
	}
	runOnLockedThread(func() {
		runPlan(c.strobe, plan)
	})
	return nil
}

// SendTrigger emits exactly one shutter-line pulse, then the configured
// N-pulse strobe train. Total duration must fit within one camera-2
// exposure; callers size StrobePlan accordingly.
func (c *Controller) SendTrigger() error {
	if !c.init {
		return ErrNotInitialized
	}
	runOnLockedThread(func() {
		pulseOnce(c.shutter, shutterPulseUs)
		runPlan(c.strobe, c.cfg.StrobePlan)
	})
	return nil
}

// Deinit releases both GPIO lines.
func (c *Controller) Deinit() error {
	if !c.init {
		return nil
	}
	c.init = false
	err1 := c.shutter.Close()
	err2 := c.strobe.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

const shutterPulseUs = 200

// runOnLockedThread pins the calling goroutine to its OS thread for the
// duration of fn so the Go scheduler cannot preempt mid-pulse-train,
// keeping edge jitter inside the 50µs budget.
func runOnLockedThread(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	fn()
}

func pulseOnce(pin gpio.Pin, highUs int) {
	pin.High()
	busyWaitUs(highUs)
	pin.Low()
}

// runPlan walks the pulse plan, busy-waiting each high/low interval.
func runPlan(pin gpio.Pin, plan pulseplan.Plan) {
	for _, pulse := range plan {
		pin.High()
		busyWaitUs(pulse.HighUs)
		pin.Low()
		busyWaitUs(pulse.LowUs)
	}
}

// busyWaitUs spins until at least us microseconds have elapsed. Busy-wait
// is acceptable per spec.md §4.6's timing requirement; time.Sleep's
// scheduler-driven wakeup jitter is far larger than the 50µs budget.
func busyWaitUs(us int) {
	if us <= 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}
