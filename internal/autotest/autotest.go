// Package autotest drives the automated_testing and send_test_results CLI
// modes: replaying a labeled suite of teed/strobed image pairs through the
// shot analyzer and comparing results against expected values within
// fixed tolerances. Adapted from the original implementation's
// GsAutomatedTesting.
package autotest

import (
	"fmt"

	"github.com/pitrac/pitrac-go/internal/shotanalysis"
)

// Tolerances mirrors GsResults' per-field abs_tolerance set used by
// AbsResultsPass in the original implementation.
type Tolerances struct {
	SpeedMPH    float32
	HLADeg      float32
	VLADeg      float32
	BackSpinRPM float32
	SideSpinRPM float32
}

// Scenario is one FinalResultsTestScenario: a labeled teed/strobed image
// pair plus the expected shot result.
type Scenario struct {
	TestIndex       int
	ShotNumber      int
	TeedBallImage   string
	StrobedBallImage string
	Expected        shotanalysis.ShotResult
	IgnoreShot      bool
}

// FieldFailure names one field that fell outside tolerance.
type FieldFailure string

const (
	FailureSpeed    FieldFailure = "speed_mph"
	FailureHLA      FieldFailure = "hla_deg"
	FailureVLA      FieldFailure = "vla_deg"
	FailureBackSpin FieldFailure = "back_spin_rpm"
	FailureSideSpin FieldFailure = "side_spin_rpm"
)

// ScenarioResult is the per-scenario pass/fail outcome.
type ScenarioResult struct {
	Scenario Scenario
	Actual   shotanalysis.ShotResult
	Failures []FieldFailure
}

func (r ScenarioResult) Passed() bool { return len(r.Failures) == 0 }

// absResultsPass mirrors GsAutomatedTesting::AbsResultsPass(float,float,float).
func absResultsPass(expected, result, tolerance float32) bool {
	diff := expected - result
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// Evaluate compares actual against scenario.Expected within tol, in the
// same field order the original TestFinalShotResultData checks.
func Evaluate(scenario Scenario, actual shotanalysis.ShotResult, tol Tolerances) ScenarioResult {
	result := ScenarioResult{Scenario: scenario, Actual: actual}

	if !absResultsPass(scenario.Expected.SpeedMPH, actual.SpeedMPH, tol.SpeedMPH) {
		result.Failures = append(result.Failures, FailureSpeed)
	}
	if !absResultsPass(scenario.Expected.HLADeg, actual.HLADeg, tol.HLADeg) {
		result.Failures = append(result.Failures, FailureHLA)
	}
	if !absResultsPass(scenario.Expected.VLADeg, actual.VLADeg, tol.VLADeg) {
		result.Failures = append(result.Failures, FailureVLA)
	}
	if !absResultsPass(scenario.Expected.BackSpinRPM, actual.BackSpinRPM, tol.BackSpinRPM) {
		result.Failures = append(result.Failures, FailureBackSpin)
	}
	if !absResultsPass(scenario.Expected.SideSpinRPM, actual.SideSpinRPM, tol.SideSpinRPM) {
		result.Failures = append(result.Failures, FailureSideSpin)
	}

	return result
}

// Suite runs every non-ignored scenario through runner and tallies
// pass/fail counts, matching the original's numTestsFailed accounting.
func Suite(scenarios []Scenario, tol Tolerances, runner func(Scenario) (shotanalysis.ShotResult, error)) ([]ScenarioResult, int, error) {
	var results []ScenarioResult
	failed := 0

	for _, sc := range scenarios {
		if sc.IgnoreShot {
			continue
		}
		actual, err := runner(sc)
		if err != nil {
			return results, failed, fmt.Errorf("autotest: scenario %d: %w", sc.TestIndex, err)
		}
		r := Evaluate(sc, actual, tol)
		if !r.Passed() {
			failed++
		}
		results = append(results, r)
	}

	return results, failed, nil
}
