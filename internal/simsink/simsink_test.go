package simsink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/shotanalysis"
)

type fakeSink struct {
	armed bool
}

func (f *fakeSink) Init() error                                      { return nil }
func (f *fakeSink) SendResult(_ shotanalysis.ShotResult) error        { return nil }
func (f *fakeSink) Armed() bool                                      { return f.armed }
func (f *fakeSink) Deinit() error                                    { return nil }

func TestAllArmedRequiresEverySink(t *testing.T) {
	a := &fakeSink{armed: true}
	b := &fakeSink{armed: false}

	require.False(t, AllArmed([]SimSink{a, b}))

	b.armed = true
	require.True(t, AllArmed([]SimSink{a, b}))
	require.True(t, AllArmed(nil))
}

func TestClubTypeFromGSProName(t *testing.T) {
	require.Equal(t, "putter", clubTypeFromGSProName("PT").String())
	require.Equal(t, "driver", clubTypeFromGSProName("DR").String())
}

func TestClubTypeFromE6Name(t *testing.T) {
	require.Equal(t, "putter", clubTypeFromE6Name("putter").String())
	require.Equal(t, "driver", clubTypeFromE6Name("anything else").String())
}

func TestSpinAxisDegZeroWhenNoSpin(t *testing.T) {
	require.Equal(t, float32(0), spinAxisDeg(0, 0))
}

func TestSpinAxisDegPureBackspinIsZero(t *testing.T) {
	require.InDelta(t, 0, float64(spinAxisDeg(2500, 0)), 1e-4)
}

func TestFormatGSProFloatIsOneDecimalString(t *testing.T) {
	require.Equal(t, "55.0", formatGSProFloat(55))
	require.Equal(t, "2500.0", formatGSProFloat(2500))
}

func TestGSProBallDataFieldsAreStrings(t *testing.T) {
	msg := gsProMessage{
		BallData: gsProBallData{
			Speed:     formatGSProFloat(55),
			TotalSpin: "0.0",
		},
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Speed":"55.0"`)
	require.Contains(t, string(data), `"TotalSpin":"0.0"`)
}
