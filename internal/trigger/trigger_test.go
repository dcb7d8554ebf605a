package trigger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/pulseplan"
)

func TestSendTriggerRequiresInit(t *testing.T) {
	c := New(Config{})
	require.ErrorIs(t, c.SendTrigger(), ErrNotInitialized)
	require.ErrorIs(t, c.SendPrimingPulses(false), ErrNotInitialized)
}

func TestDeinitWithoutInitIsNoop(t *testing.T) {
	c := New(Config{})
	require.NoError(t, c.Deinit())
}

func TestInitSendTriggerDeinit(t *testing.T) {
	cfg := Config{
		ShutterPin:  17,
		StrobePin:   27,
		PrimingPlan: pulseplan.Plan{{HighUs: 1, LowUs: 1}},
		StrobePlan:  pulseplan.Plan{{HighUs: 1, LowUs: 1}, {HighUs: 1, LowUs: 1}},
	}
	c := New(cfg)
	require.NoError(t, c.Init())
	require.NoError(t, c.SendPrimingPulses(false))
	require.NoError(t, c.SendTrigger())
	require.NoError(t, c.Deinit())
}
