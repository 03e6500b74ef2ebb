//go:build linux

package usbserial

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// termiosPort drives a tty directly through termios ioctls
type termiosPort struct {
	mu     sync.RWMutex
	fd     int
	wfd    int // non-blocking write side of the same tty
	closed bool

	// VTIME currently programmed into the tty, guarded by timeoutMu
	timeoutMu sync.Mutex
	vtime     uint8
	vtimeSet  bool
}

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// timeoutToVTIME maps a read timeout onto VTIME deciseconds (VMIN stays 0).
// Zero means poll, anything positive rounds up to at least one decisecond.
func timeoutToVTIME(timeout time.Duration) uint8 {
	if timeout <= 0 {
		return 0
	}
	tenths := (timeout + 100*time.Millisecond - 1) / (100 * time.Millisecond)
	if tenths > 255 {
		return 255
	}
	return uint8(tenths)
}

func openTermios(path string) (Port, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, mapOpenError(path, err)
	}

	wfd, err := unix.Open(path, unix.O_WRONLY|unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		unix.Close(fd)
		return nil, mapOpenError(path, err)
	}

	// Exclusive mode; older kernels may refuse, which is non-fatal
	_ = unix.IoctlSetInt(fd, unix.TIOCEXCL, 0)

	return &termiosPort{fd: fd, wfd: wfd}, nil
}

// SetParameters programs raw mode with the given framing
func (p *termiosPort) SetParameters(baudRate, dataBits, stopBits int, parity Parity) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	termios, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %v", err)
	}

	speed, err := getBaudRate(baudRate)
	if err != nil {
		return fmt.Errorf("%w: %d", err, baudRate)
	}

	// Raw mode, no input/output/line processing
	termios.Cflag = unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	switch dataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	case 8:
		termios.Cflag |= unix.CS8
	default:
		return fmt.Errorf("%w: %d data bits", ErrInvalidConfig, dataBits)
	}

	switch stopBits {
	case 1:
	case 2:
		termios.Cflag |= unix.CSTOPB
	default:
		return fmt.Errorf("%w: %d stop bits", ErrInvalidConfig, stopBits)
	}

	switch parity {
	case ParityNone:
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	default:
		return fmt.Errorf("%w: unsupported parity", ErrInvalidConfig)
	}

	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | speed
	termios.Ispeed = speed
	termios.Ospeed = speed

	p.timeoutMu.Lock()
	defer p.timeoutMu.Unlock()

	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = p.vtime

	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %v", err)
	}
	p.vtimeSet = true
	return nil
}

// setReadTimeout reprograms VTIME only when it differs from the current value
func (p *termiosPort) setReadTimeout(timeout time.Duration) error {
	vtime := timeoutToVTIME(timeout)

	p.timeoutMu.Lock()
	defer p.timeoutMu.Unlock()

	if p.vtimeSet && p.vtime == vtime {
		return nil
	}

	termios, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %v", err)
	}
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = vtime
	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set read timeout: %v", err)
	}

	p.vtime = vtime
	p.vtimeSet = true
	return nil
}

// Read blocks until data arrives or VTIME expires; a timeout returns 0, nil
func (p *termiosPort) Read(buf []byte, timeout time.Duration) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	if err := p.setReadTimeout(timeout); err != nil {
		return 0, err
	}

	for {
		n, err := unix.Read(p.fd, buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// Write writes data to the tty, giving up after timeout. A timeout of zero
// or less waits as long as it takes. Writes go through a non-blocking
// descriptor, so a stalled line times out without leaving a write behind.
func (p *termiosPort) Write(data []byte, timeout time.Duration) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	deadline := time.Now().Add(timeout)
	written := 0
	for written < len(data) {
		n, err := unix.Write(p.wfd, data[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, unix.EINTR):
			continue
		case !errors.Is(err, unix.EAGAIN):
			return written, err
		}

		wait := time.Duration(-1)
		if timeout > 0 {
			if wait = time.Until(deadline); wait <= 0 {
				return written, ErrWriteTimeout
			}
		}
		ready, err := pollWritable(p.wfd, wait)
		if err != nil {
			return written, err
		}
		if !ready {
			return written, ErrWriteTimeout
		}
	}
	return written, nil
}

// pollWritable waits up to timeout for fd to accept output. A negative
// timeout waits indefinitely, zero reports false straight away.
func pollWritable(fd int, timeout time.Duration) (bool, error) {
	if timeout == 0 {
		return false, nil
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		ms := -1
		if timeout > 0 {
			ms = int((timeout + time.Millisecond - 1) / time.Millisecond)
		}
		start := time.Now()
		n, err := unix.Poll(fds, ms)
		if errors.Is(err, unix.EINTR) {
			if timeout > 0 {
				timeout -= time.Since(start)
				if timeout <= 0 {
					return false, nil
				}
			}
			continue
		}
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return false, fmt.Errorf("tty not writable (revents %#x)", fds[0].Revents)
		}
		return true, nil
	}
}

// Close closes the tty
func (p *termiosPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	p.closed = true
	return multierr.Append(unix.Close(p.fd), unix.Close(p.wfd))
}
