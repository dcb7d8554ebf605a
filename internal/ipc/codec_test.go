package ipc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitrac/pitrac-go/internal/clubdata"
)

func TestProtoCodecRoundTripsControlMessage(t *testing.T) {
	msg := Message{
		Kind:     KindControlMessage,
		SenderID: "watcher-1",
		Control:  &ControlPayload{Action: ActionChangeClub, ClubType: clubdata.ClubDriver},
	}

	data, err := (ProtoCodec{}).Encode(msg)
	require.NoError(t, err)

	got, err := (ProtoCodec{}).Decode(data)
	require.NoError(t, err)
	require.Equal(t, msg.Kind, got.Kind)
	require.Equal(t, msg.SenderID, got.SenderID)
	require.Equal(t, msg.Control, got.Control)
	require.Nil(t, got.Result)
}

func TestProtoCodecRoundTripsResultMessage(t *testing.T) {
	msg := Message{
		Kind:     KindResult,
		SenderID: "flight-1",
		Result: &ResultPayload{
			ShotNumber:  7,
			SpeedMPH:    142.75,
			VLADeg:      13.2,
			HLADeg:      -1.5,
			BackSpinRPM: 2600,
			SideSpinRPM: -310,
			ClubType:    clubdata.ClubPutter,
		},
	}

	data, err := (ProtoCodec{}).Encode(msg)
	require.NoError(t, err)

	got, err := (ProtoCodec{}).Decode(data)
	require.NoError(t, err)
	require.Equal(t, msg.Result, got.Result)
}

func TestProtoCodecRoundTripsImageBytes(t *testing.T) {
	msg := Message{Kind: KindCamera2Image, SenderID: "flight-1", Image: []byte{1, 2, 3, 4}}

	data, err := (ProtoCodec{}).Encode(msg)
	require.NoError(t, err)

	got, err := (ProtoCodec{}).Decode(data)
	require.NoError(t, err)
	require.Equal(t, msg.Image, got.Image)
}

func TestProtoCodecDecodeMalformedReturnsError(t *testing.T) {
	_, err := (ProtoCodec{}).Decode([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	require.Error(t, err)
}

func TestJSONCodecRoundTrips(t *testing.T) {
	msg := Message{Kind: KindArmCamera2, SenderID: "watcher-1"}

	data, err := (JSONCodec{}).Encode(msg)
	require.NoError(t, err)

	got, err := (JSONCodec{}).Decode(data)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}
