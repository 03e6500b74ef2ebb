package usbserial

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"time"

	"go.bug.st/serial"
)

// Port is an open serial port as seen by the Helper. Implementations are the
// transport backends; each call blocks for at most the given timeout.
type Port interface {
	SetParameters(baudRate, dataBits, stopBits int, parity Parity) error
	Read(buf []byte, timeout time.Duration) (int, error)
	Write(data []byte, timeout time.Duration) (int, error)
	Close() error
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// portOpener opens the tty at path without configuring it.
type portOpener func(path string, backend Backend) (Port, error)

func openPort(path string, backend Backend) (Port, error) {
	switch backend {
	case BackendTermios:
		return openTermios(path)
	default:
		return openNative(path)
	}
}

// writeWithTimeout runs write in a goroutine and gives up after timeout.
// A write abandoned on timeout keeps its goroutine until the driver returns
// from the write call; closing the port does not interrupt it.
func writeWithTimeout(write func([]byte) (int, error), data []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return write(data)
	}

	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := write(data)
		resultCh <- writeResult{n: n, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}

// mapOpenError translates backend errors into the package's sentinel errors.
func mapOpenError(path string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound:
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
		case serial.PermissionDenied:
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		case serial.PortBusy:
			return fmt.Errorf("%w: %s", ErrDeviceInUse, path)
		case serial.InvalidSpeed:
			return fmt.Errorf("%w: %v", ErrInvalidBaudRate, err)
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	case errors.Is(err, syscall.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceInUse, path)
	}
	return fmt.Errorf("failed to open %s: %w", path, err)
}
