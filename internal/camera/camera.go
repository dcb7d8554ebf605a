// Package camera supplies the abstract "camera" spec.md §1 asks for: a
// cropped-frame source the core reads from without knowing which
// platform-specific driver or sensor sits behind it. The device string
// parsing is grounded on the teacher's cmd/display/source camera source.
package camera

import (
	"fmt"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"github.com/pitrac/pitrac-go/internal/imagebuf"
)

// Camera is the narrow contract the watcher and flight FSMs read frames
// through; spec.md §1 places the concrete driver behind it out of scope.
type Camera interface {
	Read() (imagebuf.Image, error)
	Close() error
}

// Config describes a device string of the form "ID[:widthxheight]", e.g.
// "0" or "0:1280x720".
type Config struct {
	DeviceID int
	Width    int
	Height   int
}

// ParseConfig parses the "ID[:WxH]" device string read from a camera's
// cameras.<name>.device config key.
func ParseConfig(s string, defaultWidth, defaultHeight int) (Config, error) {
	cfg := Config{Width: defaultWidth, Height: defaultHeight}

	parts := strings.SplitN(s, ":", 2)
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return cfg, fmt.Errorf("camera: invalid device id %q: %w", parts[0], err)
	}
	cfg.DeviceID = id
	if len(parts) == 1 {
		return cfg, nil
	}

	res := strings.SplitN(parts[1], "x", 2)
	if len(res) != 2 {
		return cfg, fmt.Errorf("camera: invalid resolution %q (expected WIDTHxHEIGHT)", parts[1])
	}
	w, err := strconv.Atoi(res[0])
	if err != nil {
		return cfg, fmt.Errorf("camera: invalid width %q: %w", res[0], err)
	}
	h, err := strconv.Atoi(res[1])
	if err != nil {
		return cfg, fmt.Errorf("camera: invalid height %q: %w", res[1], err)
	}
	cfg.Width, cfg.Height = w, h
	return cfg, nil
}

// gocvCamera wraps a gocv.VideoCapture, used both for UVC/V4L2 devices in
// development and for any platform whose vendor SDK exposes a V4L2-style
// node; a production libcamera/rpicam backend is the explicitly
// out-of-scope plug-in this interface exists to isolate.
type gocvCamera struct {
	cap    *gocv.VideoCapture
	frame  gocv.Mat
	source imagebuf.SourceTag
}

// Open starts capture from cfg.DeviceID at the requested resolution,
// tagging every frame it produces with source.
func Open(cfg Config, source imagebuf.SourceTag) (Camera, error) {
	cap, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.DeviceID, err)
	}
	if cfg.Width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	return &gocvCamera{cap: cap, frame: gocv.NewMat(), source: source}, nil
}

func (c *gocvCamera) Read() (imagebuf.Image, error) {
	if ok := c.cap.Read(&c.frame); !ok || c.frame.Empty() {
		return imagebuf.Image{}, fmt.Errorf("camera: read failed or empty frame")
	}
	return imagebuf.New(c.frame.Clone(), c.source)
}

func (c *gocvCamera) Close() error {
	c.frame.Close()
	return c.cap.Close()
}
