package usbserial

import (
	"fmt"
	"os/exec"
	"time"
)

// reenumerationDelay is how long a reset device typically takes to come back
var reenumerationDelay = 2 * time.Second

// ResetDevice performs a USB-level reset of the device
// This can recover hardware that is in a hung/unresponsive state
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
//
// Returns:
// - nil if reset successful
// - ErrUSBResetNotAvailable if usbreset utility not found
// - ErrUSBInfoNotAvailable if the bus/device numbers are unknown
// - error if reset fails
func ResetDevice(dev USBDevice) error {
	if dev.BusNumber <= 0 || dev.DeviceNumber <= 0 {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	// usbreset expects zero-padded BBB/DDD
	usbPath := fmt.Sprintf("%03d/%03d", dev.BusNumber, dev.DeviceNumber)

	cmd := exec.Command("usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	time.Sleep(reenumerationDelay)

	return nil
}

// ResetBySelector resets the device a selector resolves to in a fresh scan.
// Identity selectors keep working when paths change after re-enumeration.
func ResetBySelector(p Prober, sel Selector) error {
	drivers, err := p.FindAllDrivers()
	if err != nil {
		return err
	}

	index, err := sel.Resolve(drivers)
	if err != nil {
		return err
	}
	return ResetDevice(drivers[index].Device)
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
