// Package gpio adapts the GPIO output lines the trigger controller (C6)
// drives: the camera-2 external shutter line and the strobe illumination
// driver. A Linux sysfs backend and a no-op stub satisfy the same Pin
// interface, selected by build tag the same way the teacher's device
// layer splits platform backends.
package gpio

// Pin is a single digital output line. Configuration (direction, initial
// state) happens in the constructor, not through this interface.
type Pin interface {
	// Set drives the pin to the given level.
	Set(high bool)
	// High is a convenience for Set(true).
	High()
	// Low is a convenience for Set(false).
	Low()
	// Close releases any OS resources (sysfs file descriptors) backing
	// the pin.
	Close() error
}
