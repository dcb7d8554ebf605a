package spinsolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizedCrossCorrelationIdentical(t *testing.T) {
	a := []float32{0.1, 0.5, 0.9, 0.3}
	mask := []bool{true, true, true, true}

	score := normalizedCrossCorrelation(a, a, mask, mask)
	require.InDelta(t, 1.0, float64(score), 1e-4)
}

func TestNormalizedCrossCorrelationNoOverlap(t *testing.T) {
	a := []float32{0.1, 0.5}
	b := []float32{0.9, 0.3}
	mask := []bool{false, false}

	score := normalizedCrossCorrelation(a, b, mask, mask)
	require.Equal(t, float32(-1), score)
}

func TestPeakMinusMedian(t *testing.T) {
	scores := []float32{0.1, 0.2, 0.3, 0.4, 0.9}
	require.InDelta(t, 0.6, float64(peakMinusMedian(0.9, scores)), 1e-6)
}

func TestDiscPixelsAtOutOfBounds(t *testing.T) {
	d := discPixels{side: 2, gray: []float32{1, 2, 3, 4}, inside: []bool{true, true, true, true}}
	_, ok := d.at(-1, 0)
	require.False(t, ok)
	_, ok = d.at(5, 5)
	require.False(t, ok)
	v, ok := d.at(1, 1)
	require.True(t, ok)
	require.Equal(t, float32(4), v)
}
