package camera

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfigDeviceOnly(t *testing.T) {
	cfg, err := ParseConfig("0", 1280, 720)
	require.NoError(t, err)
	require.Equal(t, Config{DeviceID: 0, Width: 1280, Height: 720}, cfg)
}

func TestParseConfigWithResolution(t *testing.T) {
	cfg, err := ParseConfig("1:640x480", 1280, 720)
	require.NoError(t, err)
	require.Equal(t, Config{DeviceID: 1, Width: 640, Height: 480}, cfg)
}

func TestParseConfigRejectsMalformedResolution(t *testing.T) {
	_, err := ParseConfig("0:640", 1280, 720)
	require.Error(t, err)
}

func TestParseConfigRejectsNonNumericID(t *testing.T) {
	_, err := ParseConfig("abc", 1280, 720)
	require.Error(t, err)
}
