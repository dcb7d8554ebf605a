// Package shotanalysis implements C4: assembling the teed-ball reference,
// the strobed flight image, and the pulse-plan time base into a velocity
// vector, launch angles and spin triplet (spec.md §4.4).
package shotanalysis

import (
	"github.com/pitrac/pitrac-go/internal/balldetect"
	"github.com/pitrac/pitrac-go/internal/clubdata"
	"github.com/pitrac/pitrac-go/internal/geometry"
)

// BallDiagnostics carries the per-ball debug fields spec.md §3 lists
// alongside the Ball (full) derived-field set.
type BallDiagnostics struct {
	ColorMeanRGB            [3]uint8
	CalibratedFocalLengthMM float32
	QualityRank             int
}

// BallFull is the Ball (full) data model from spec.md §3: a ball position
// plus the derived fields written exactly once by the shot analyzer.
type BallFull struct {
	Position balldetect.BallPosition

	CameraDistanceM  float32
	CameraAngleXDeg  float32
	CameraAngleYDeg  float32
	RotationDeg      geometry.Vec3
	RotationSpeedRPM geometry.Vec3
	VelocityMS       float32

	Diagnostics BallDiagnostics
}

// ShotResult is the (shot_number, speed_mph, vla_deg, hla_deg,
// back_spin_rpm, side_spin_rpm, club_type) tuple from spec.md §3. Side spin
// is signed: negative is left (counter-clockwise viewed from above).
type ShotResult struct {
	ShotNumber  int
	SpeedMPH    float32
	VLADeg      float32
	HLADeg      float32
	BackSpinRPM float32
	SideSpinRPM float32
	ClubType    clubdata.ClubType
}

const metersPerSecondToMPH = 2.23694

// degPerMicrosecondToRPM converts a spin rate expressed as degrees rotated
// per microsecond elapsed into revolutions per minute.
func degPerMicrosecondToRPM(degPerUs float32) float32 {
	revPerUs := degPerUs / 360
	revPerMinute := revPerUs * 1_000_000 * 60
	return revPerMinute
}
