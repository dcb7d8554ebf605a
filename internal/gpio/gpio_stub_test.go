//go:build !tinygo && !linux

package gpio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubPinTracksState(t *testing.T) {
	pin, err := NewPin(17)
	require.NoError(t, err)
	defer pin.Close()

	sp := pin.(*stubPin)
	require.False(t, sp.state)

	pin.High()
	require.True(t, sp.state)

	pin.Low()
	require.False(t, sp.state)

	pin.Set(true)
	require.True(t, sp.state)
}
