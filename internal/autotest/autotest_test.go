package autotest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/shotanalysis"
)

func TestEvaluatePassesWithinTolerance(t *testing.T) {
	scenario := Scenario{Expected: shotanalysis.ShotResult{SpeedMPH: 150, HLADeg: 2, VLADeg: 12, BackSpinRPM: 2500, SideSpinRPM: -300}}
	actual := shotanalysis.ShotResult{SpeedMPH: 150.5, HLADeg: 2.2, VLADeg: 11.8, BackSpinRPM: 2480, SideSpinRPM: -290}
	tol := Tolerances{SpeedMPH: 1, HLADeg: 0.5, VLADeg: 0.5, BackSpinRPM: 50, SideSpinRPM: 50}

	result := Evaluate(scenario, actual, tol)
	require.True(t, result.Passed())
}

func TestEvaluateFailsOutsideTolerance(t *testing.T) {
	scenario := Scenario{Expected: shotanalysis.ShotResult{SpeedMPH: 150}}
	actual := shotanalysis.ShotResult{SpeedMPH: 160}
	tol := Tolerances{SpeedMPH: 1}

	result := Evaluate(scenario, actual, tol)
	require.False(t, result.Passed())
	require.Contains(t, result.Failures, FailureSpeed)
}

func TestSuiteSkipsIgnoredScenarios(t *testing.T) {
	scenarios := []Scenario{
		{TestIndex: 1, IgnoreShot: true},
		{TestIndex: 2, Expected: shotanalysis.ShotResult{SpeedMPH: 100}},
	}
	tol := Tolerances{SpeedMPH: 1}

	results, failed, err := Suite(scenarios, tol, func(s Scenario) (shotanalysis.ShotResult, error) {
		return shotanalysis.ShotResult{SpeedMPH: 100}, nil
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 0, failed)
}

func TestSuitePropagatesRunnerError(t *testing.T) {
	scenarios := []Scenario{{TestIndex: 1}}
	_, _, err := Suite(scenarios, Tolerances{}, func(s Scenario) (shotanalysis.ShotResult, error) {
		return shotanalysis.ShotResult{}, errors.New("boom")
	})
	require.Error(t, err)
}
