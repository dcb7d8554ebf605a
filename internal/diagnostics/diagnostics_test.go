package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestEmitCallsPublisher(t *testing.T) {
	var gotStatus Status
	var gotDetail string
	agg := New(t.TempDir(), func(s Status, d string) {
		gotStatus = s
		gotDetail = d
	}, func() string { return "stamp" })

	agg.Emit(StatusHit, "shot 3")

	require.Equal(t, StatusHit, gotStatus)
	require.Equal(t, "shot 3", gotDetail)
}

func TestSaveTeedBallOverlayRejectsEmptyImage(t *testing.T) {
	agg := New(t.TempDir(), nil, func() string { return "stamp" })
	err := agg.SaveTeedBallOverlay(gocv.NewMat())
	require.Error(t, err)
}

func TestSaveClubStrikeVideoNoopOnEmptyFrames(t *testing.T) {
	agg := New(t.TempDir(), nil, nil)
	require.NoError(t, agg.SaveClubStrikeVideo(nil, 240))
}
