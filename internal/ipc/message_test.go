package ipc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/clubdata"
)

func TestControlMessageRoundTripsAction(t *testing.T) {
	msg := Message{
		Kind:     KindControlMessage,
		SenderID: "LM_1",
		Control:  &ControlPayload{Action: ActionChangeClub, ClubType: clubdata.ClubDriver},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, KindControlMessage, decoded.Kind)
	require.Equal(t, ActionChangeClub, decoded.Control.Action)
	require.Equal(t, clubdata.ClubDriver, decoded.Control.ClubType)
	require.Nil(t, decoded.Result)
	require.Nil(t, decoded.Image)
}

func TestResultMessageCarriesShotFields(t *testing.T) {
	msg := Message{
		Kind:     KindResult,
		SenderID: "LM_2",
		Result: &ResultPayload{
			ShotNumber:  3,
			SpeedMPH:    142.5,
			BackSpinRPM: 2600,
		},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 3, decoded.Result.ShotNumber)
	require.InDelta(t, 142.5, decoded.Result.SpeedMPH, 0.01)
}
