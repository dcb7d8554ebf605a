package balldetect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidatesInvariants(t *testing.T) {
	_, err := New(10, 20, 5, 0.8, 1000, MethodHoughPlaced)
	require.NoError(t, err)

	_, err = New(10, 20, 5, 1.5, 1000, MethodHoughPlaced)
	require.ErrorIs(t, err, ErrInvalidBallPosition)

	_, err = New(10, 20, -1, 0.5, 1000, MethodHoughPlaced)
	require.ErrorIs(t, err, ErrInvalidBallPosition)
}

func TestConfidenceLevelBuckets(t *testing.T) {
	cases := []struct {
		c    float32
		want ConfidenceLevel
	}{
		{0.0, VeryLow},
		{0.29, VeryLow},
		{0.3, Low},
		{0.49, Low},
		{0.5, Medium},
		{0.69, Medium},
		{0.7, High},
		{0.89, High},
		{0.9, VeryHigh},
		{1.0, VeryHigh},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, GetConfidenceLevel(tc.c), "confidence %v", tc.c)
	}
}

func TestBandDistance(t *testing.T) {
	require.Equal(t, 0, bandDistance(3, 2, 5))
	require.Equal(t, 1, bandDistance(1, 2, 5))
	require.Equal(t, 2, bandDistance(7, 2, 5))
}
