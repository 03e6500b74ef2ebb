package usbserial

import (
	"sync"
	"time"

	"go.bug.st/serial"
)

// nativePort is the go.bug.st/serial backend.
type nativePort struct {
	mu     sync.RWMutex
	port   serial.Port
	closed bool
}

func openNative(path string) (Port, error) {
	p, err := serial.Open(path, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, mapOpenError(path, err)
	}
	return &nativePort{port: p}, nil
}

func (p *nativePort) SetParameters(baudRate, dataBits, stopBits int, parity Parity) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: dataBits,
		Parity:   nativeParity(parity),
		StopBits: serial.OneStopBit,
	}
	if stopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	if err := p.port.SetMode(mode); err != nil {
		return mapOpenError("", err)
	}
	return nil
}

func (p *nativePort) Read(buf []byte, timeout time.Duration) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	// Same as termios VTIME=0: return what is buffered
	if timeout < 0 {
		timeout = 0
	}
	if err := p.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}
	return p.port.Read(buf)
}

func (p *nativePort) Write(data []byte, timeout time.Duration) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return writeWithTimeout(p.port.Write, data, timeout)
}

func (p *nativePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return p.port.Close()
}

func nativeParity(p Parity) serial.Parity {
	switch p {
	case ParityOdd:
		return serial.OddParity
	case ParityEven:
		return serial.EvenParity
	case ParityMark:
		return serial.MarkParity
	case ParitySpace:
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}
