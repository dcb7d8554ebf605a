// Package balldetect implements C2: locating circular ball candidates in a
// frame under the three search modes spec.md §4.2 defines.
package balldetect

import (
	"errors"

	"github.com/chewxy/math32"
)

// ErrInvalidBallPosition is returned by New when an invariant from
// spec.md §8 is violated: confidence outside [0,1], negative radius, or a
// non-finite coordinate.
var ErrInvalidBallPosition = errors.New("balldetect: invalid ball position")

// MethodTag records which detector pass produced a BallPosition, useful
// for diagnostics overlays and for the shot analyzer's failure messages.
type MethodTag string

const (
	MethodHoughPlaced    MethodTag = "hough_placed"
	MethodHoughStrobed   MethodTag = "hough_strobed"
	MethodHoughReference MethodTag = "hough_reference"
)

// BallPosition is the immutable (x_px, y_px, r_px, confidence,
// timestamp_µs, method_tag) tuple from spec.md §3. Once constructed by a
// detector it is never mutated; ShotAnalysis reads the fields, it doesn't
// write back into the struct.
type BallPosition struct {
	XPx, YPx, RPx float32
	Confidence    float32
	TimestampUs   int64
	Method        MethodTag
}

// New validates and constructs a BallPosition, enforcing the spec.md §8
// invariants: 0 <= confidence <= 1, r_px >= 0, and finite coordinates.
func New(x, y, r, confidence float32, timestampUs int64, method MethodTag) (BallPosition, error) {
	if confidence < 0 || confidence > 1 {
		return BallPosition{}, ErrInvalidBallPosition
	}
	if r < 0 {
		return BallPosition{}, ErrInvalidBallPosition
	}
	if !finite(x) || !finite(y) || !finite(r) {
		return BallPosition{}, ErrInvalidBallPosition
	}
	return BallPosition{
		XPx: x, YPx: y, RPx: r,
		Confidence:  confidence,
		TimestampUs: timestampUs,
		Method:      method,
	}, nil
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// ConfidenceLevel buckets a raw confidence score into the five named tiers
// used for status/UI reporting, with thresholds at 0.3/0.5/0.7/0.9
// (spec.md §8), inclusive of the lower bound of each non-first bucket.
type ConfidenceLevel int

const (
	VeryLow ConfidenceLevel = iota
	Low
	Medium
	High
	VeryHigh
)

func (c ConfidenceLevel) String() string {
	switch c {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case VeryHigh:
		return "VERY_HIGH"
	default:
		return "VERY_LOW"
	}
}

// GetConfidenceLevel implements the spec.md §8 bucketing law.
func GetConfidenceLevel(c float32) ConfidenceLevel {
	switch {
	case c >= 0.9:
		return VeryHigh
	case c >= 0.7:
		return High
	case c >= 0.5:
		return Medium
	case c >= 0.3:
		return Low
	default:
		return VeryLow
	}
}
