//go:build !tinygo && linux

package gpio

import (
	"fmt"
	"os"
)

// sysfsPin drives a GPIO line through the Linux sysfs interface, grounded
// on the teacher's LinuxPin sysfs driver. The pin must already be exported
// (e.g. `echo N > /sys/class/gpio/export`) before NewPin is called.
type sysfsPin struct {
	num   int
	value *os.File
}

// NewPin opens the sysfs value file for GPIO line num and configures it
// for output, low.
func NewPin(num int) (Pin, error) {
	dirPath := fmt.Sprintf("/sys/class/gpio/gpio%d/direction", num)
	if err := os.WriteFile(dirPath, []byte("out"), 0); err != nil {
		return nil, fmt.Errorf("gpio: configure direction for pin %d: %w", num, err)
	}

	valuePath := fmt.Sprintf("/sys/class/gpio/gpio%d/value", num)
	value, err := os.OpenFile(valuePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("gpio: open pin %d: %w (ensure pin is exported)", num, err)
	}

	p := &sysfsPin{num: num, value: value}
	p.Low()
	return p, nil
}

func (p *sysfsPin) Set(high bool) {
	b := byte('0')
	if high {
		b = '1'
	}
	p.value.WriteAt([]byte{b}, 0)
}

func (p *sysfsPin) High() { p.Set(true) }
func (p *sysfsPin) Low()  { p.Set(false) }

func (p *sysfsPin) Close() error {
	return p.value.Close()
}
