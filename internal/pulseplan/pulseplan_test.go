package pulseplan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumUsIsNotNMinusOneTimesPeriod(t *testing.T) {
	// Deliberately unequal intervals: (N-1)*period would be wrong here.
	plan := Plan{{HighUs: 10, LowUs: 990}, {HighUs: 10, LowUs: 1490}, {HighUs: 10, LowUs: 490}}

	require.Equal(t, int64(3000), plan.SumUs())
	require.NotEqual(t, int64(2)*1000, plan.SumUs())
}

func TestIntervalBetween(t *testing.T) {
	plan := Plan{{HighUs: 10, LowUs: 990}, {HighUs: 10, LowUs: 1490}, {HighUs: 10, LowUs: 490}}

	require.Equal(t, int64(1000), plan.IntervalBetweenUs(0, 1))
	require.Equal(t, int64(3000), plan.IntervalBetweenUs(0, 3))
}
