// Package motiondetect implements C5: a per-pixel ROI diff stage installed
// into the camera-1 post-processing pipeline, firing a trigger callback
// synchronously, on the frame-delivery thread, the instant the ROI crosses
// threshold (spec.md §4.5).
package motiondetect

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when Process is handed a zero-size Mat.
var ErrEmptyFrame = errors.New("motiondetect: empty frame")

// Config bundles the parameters installed once, before the video loop
// starts, exactly as spec.md §4.5 describes.
type Config struct {
	ROIX, ROIY, ROIW, ROIH int
	HSkip, VSkip           int
	DifferenceM            float32 // T(px) = DifferenceM*prev + DifferenceC
	DifferenceC            float32
	RegionThreshold        float32 // fraction of ROI pixels that must exceed T
	FramePeriod            int     // process every k-th frame
	PostMotionFrames       int     // countdown length once a trigger fires
	RingBufferSize         int     // frames retained for club-strike diagnostics
}

func DefaultConfig() Config {
	return Config{
		HSkip: 1, VSkip: 1,
		DifferenceM:      1.2,
		DifferenceC:      8,
		RegionThreshold:  0.03,
		FramePeriod:      1,
		PostMotionFrames: 4,
		RingBufferSize:   8,
	}
}

// RingFrame is one entry of the recent-frames buffer spec.md §4.5 step 5
// describes: a cloned frame, its sequence number and the frame rate it was
// captured at.
type RingFrame struct {
	Mat        gocv.Mat
	SequenceNo int64
	FrameRate  float64
}

// Stage is the per-frame motion-detection state machine. It is not
// safe for concurrent use; the contract is one goroutine feeding frames in
// delivery order.
type Stage struct {
	cfg Config

	prev      []uint8
	firstTime bool
	sequence  int64
	frameSkip int

	paused           bool
	postMotionLeft   int
	ring             []RingFrame
	ringNext         int

	// OnTrigger is invoked synchronously, on the frame-delivery thread,
	// the instant the ROI crosses region_threshold. It must not block.
	OnTrigger func()
}

func New(cfg Config, onTrigger func()) *Stage {
	return &Stage{
		cfg:       cfg,
		firstTime: true,
		ring:      make([]RingFrame, cfg.RingBufferSize),
		OnTrigger: onTrigger,
	}
}

// Process implements spec.md §4.5's per-frame logic in the specified step
// order, operating on a single-channel (grayscale) Mat. The caller owns
// frame's lifetime; Process never stores a reference to it beyond the ring
// buffer, which Clone()s before retaining.
func (s *Stage) Process(frame gocv.Mat, frameRate float64) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}
	s.sequence++

	// Step 1: paused with exhausted countdown -> return immediately.
	if s.paused && s.postMotionLeft <= 0 {
		return nil
	}

	s.frameSkip++
	if s.cfg.FramePeriod > 1 && s.frameSkip%s.cfg.FramePeriod != 0 {
		return nil
	}

	fired := s.diffROI(frame)

	// Step 5: while not paused, or while the countdown is still running,
	// retain the frame for club-strike diagnostics.
	if !s.paused || s.postMotionLeft > 0 {
		s.pushRing(frame, frameRate)
	}

	if fired {
		s.paused = true
		s.postMotionLeft = s.cfg.PostMotionFrames
		if s.OnTrigger != nil {
			s.OnTrigger()
		}
	} else if s.postMotionLeft > 0 {
		s.postMotionLeft--
	}

	return nil
}

// diffROI implements steps 2-4: iterate the subsampled ROI, count
// exceedances of the adaptive threshold, replace prev with curr, and
// report whether the region threshold was crossed.
func (s *Stage) diffROI(frame gocv.Mat) bool {
	roiW, roiH := s.cfg.ROIW, s.cfg.ROIH
	if roiW <= 0 || roiH <= 0 {
		roiW, roiH = frame.Cols(), frame.Rows()
	}
	hskip, vskip := s.cfg.HSkip, s.cfg.VSkip
	if hskip < 1 {
		hskip = 1
	}
	if vskip < 1 {
		vskip = 1
	}

	if s.firstTime || len(s.prev) != roiW*roiH {
		s.prev = make([]uint8, roiW*roiH)
		s.seedPrev(frame, roiW, roiH)
		s.firstTime = false
		return false
	}

	var exceed int
	for y := 0; y < roiH; y += vskip {
		for x := 0; x < roiW; x += hskip {
			idx := y*roiW + x
			curr := frame.GetUCharAt(s.cfg.ROIY+y, s.cfg.ROIX+x)
			prev := s.prev[idx]

			diff := int(curr) - int(prev)
			if diff < 0 {
				diff = -diff
			}
			threshold := s.cfg.DifferenceM*float32(prev) + s.cfg.DifferenceC
			if float32(diff) > threshold {
				exceed++
			}
			s.prev[idx] = curr
		}
	}

	return float32(exceed) >= s.cfg.RegionThreshold*float32(roiW*roiH)
}

func (s *Stage) seedPrev(frame gocv.Mat, roiW, roiH int) {
	for y := 0; y < roiH; y++ {
		for x := 0; x < roiW; x++ {
			s.prev[y*roiW+x] = frame.GetUCharAt(s.cfg.ROIY+y, s.cfg.ROIX+x)
		}
	}
}

func (s *Stage) pushRing(frame gocv.Mat, frameRate float64) {
	slot := &s.ring[s.ringNext]
	if !slot.Mat.Empty() {
		slot.Mat.Close()
	}
	*slot = RingFrame{Mat: frame.Clone(), SequenceNo: s.sequence, FrameRate: frameRate}
	s.ringNext = (s.ringNext + 1) % len(s.ring)
}

// RecentFrames returns the ring buffer contents in capture order, oldest
// first, skipping unfilled slots.
func (s *Stage) RecentFrames() []RingFrame {
	out := make([]RingFrame, 0, len(s.ring))
	for i := 0; i < len(s.ring); i++ {
		idx := (s.ringNext + i) % len(s.ring)
		if s.ring[idx].Mat.Empty() {
			continue
		}
		out = append(out, s.ring[idx])
	}
	return out
}

// Close releases every Mat retained in the ring buffer.
func (s *Stage) Close() {
	for i := range s.ring {
		if !s.ring[i].Mat.Empty() {
			s.ring[i].Mat.Close()
		}
	}
}

// Reset clears the paused/countdown state, used when the watcher FSM
// re-enters WaitingForBallHit after a prior shot.
func (s *Stage) Reset() {
	s.paused = false
	s.postMotionLeft = 0
	s.firstTime = true
	s.sequence = 0
	s.frameSkip = 0
}
