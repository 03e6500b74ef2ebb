package usbserial

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Connection defaults. Every connection runs 8 data bits, 1 stop bit, no parity.
const (
	DefaultBaudRate      = 9600
	DefaultPortIndex     = 0
	DefaultMaxReadLength = 1024
	DefaultTimeout       = time.Second

	DataBits = 8
	StopBits = 1
)

// Backend selects the serial transport used to talk to a port
type Backend int

const (
	BackendNative  Backend = iota // go.bug.st/serial
	BackendTermios                // raw termios ioctls (Linux only)
)

func (b Backend) String() string {
	switch b {
	case BackendNative:
		return "native"
	case BackendTermios:
		return "termios"
	default:
		return "unknown"
	}
}

// ParseBackend maps a config string onto a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return BackendNative, nil
	case "termios":
		return BackendTermios, nil
	default:
		return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, s)
	}
}

// Config holds the configuration for a Helper
type Config struct {
	Backend     Backend
	Prober      Prober
	Permissions Permissions
	Logger      *zap.SugaredLogger
	EventBuffer int // capacity of the Events channel

	openPort portOpener
}

// Option is a functional option for configuring a Helper
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Backend:     BackendNative,
		Prober:      DefaultProber(),
		Permissions: FilePermissions{},
		Logger:      zap.NewNop().Sugar(),
		EventBuffer: 16,
	}
}

// WithBackend sets the serial transport
func WithBackend(b Backend) Option {
	return func(c *Config) error {
		if b != BackendNative && b != BackendTermios {
			return ErrInvalidConfig
		}
		c.Backend = b
		return nil
	}
}

// WithProber replaces the device prober
func WithProber(p Prober) Option {
	return func(c *Config) error {
		if p == nil {
			return ErrInvalidConfig
		}
		c.Prober = p
		return nil
	}
}

// WithPermissions replaces the permission checker
func WithPermissions(p Permissions) Option {
	return func(c *Config) error {
		if p == nil {
			return ErrInvalidConfig
		}
		c.Permissions = p
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Config) error {
		if l == nil {
			return ErrInvalidConfig
		}
		c.Logger = l
		return nil
	}
}

// WithEventBuffer sets the capacity of the Events channel
func WithEventBuffer(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return ErrInvalidConfig
		}
		c.EventBuffer = n
		return nil
	}
}

// withPortOpener replaces the transport; used by tests.
func withPortOpener(open portOpener) Option {
	return func(c *Config) error {
		c.openPort = open
		return nil
	}
}

// standardBaudRates are the rates every termios implementation understands.
var standardBaudRates = map[int]bool{
	50: true, 75: true, 110: true, 134: true, 150: true, 200: true, 300: true,
	600: true, 1200: true, 1800: true, 2400: true, 4800: true, 9600: true,
	19200: true, 38400: true, 57600: true, 115200: true, 230400: true,
	460800: true, 500000: true, 576000: true, 921600: true, 1000000: true,
	1152000: true, 1500000: true, 2000000: true, 2500000: true, 3000000: true,
	3500000: true, 4000000: true,
}

// validateBaudRate checks a rate against what the backend can program.
// The native backend accepts any positive rate and leaves the final word
// to the OS driver.
func validateBaudRate(b Backend, rate int) error {
	if rate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
	}
	if b == BackendTermios && !standardBaudRates[rate] {
		return fmt.Errorf("%w: %d is not a standard termios rate", ErrInvalidBaudRate, rate)
	}
	return nil
}
