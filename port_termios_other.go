//go:build !linux

package usbserial

import "fmt"

func openTermios(path string) (Port, error) {
	return nil, fmt.Errorf("%w: termios backend is only available on Linux", ErrInvalidConfig)
}
