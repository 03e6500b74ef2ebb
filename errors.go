package usbserial

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound        = errors.New("usb serial device not found")
	ErrDeviceIndexOutOfRange = errors.New("device index out of range")
	ErrPortIndexOutOfRange   = errors.New("port index out of range")
	ErrPermissionDenied      = errors.New("permission denied accessing usb serial device")
	ErrDeviceInUse           = errors.New("usb serial device already in use")
	ErrInvalidBaudRate       = errors.New("invalid baud rate")
	ErrInvalidConfig         = errors.New("invalid serial configuration")
	ErrInvalidSelector       = errors.New("invalid device selector")

	// Connection state errors
	ErrPortNotOpen  = errors.New("serial port is not open")
	ErrPortClosed   = errors.New("serial port is closed")
	ErrShortWrite   = errors.New("short write to serial port")
	ErrWriteTimeout = errors.New("write operation timed out")

	// USB-related errors
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)
