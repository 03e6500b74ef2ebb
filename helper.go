package usbserial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Helper owns at most one open connection: the driver it was opened on and
// the port handle. State moves closed -> open -> closed; Open on an open
// Helper closes the previous connection first.
type Helper struct {
	cfg    Config
	log    *zap.SugaredLogger
	events chan Event

	mu     sync.RWMutex
	driver *Driver
	port   Port
	info   PortInfo
	baud   int
}

// Connection describes the currently open port
type Connection struct {
	Driver   Driver
	Port     PortInfo
	BaudRate int
}

// New creates a Helper. Nothing is opened until Open is called.
func New(opts ...Option) (*Helper, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.openPort == nil {
		cfg.openPort = openPort
	}
	if fp, ok := cfg.Permissions.(FilePermissions); ok && fp.Logger == nil {
		fp.Logger = cfg.Logger
		cfg.Permissions = fp
	}

	return &Helper{
		cfg:    cfg,
		log:    cfg.Logger,
		events: make(chan Event, cfg.EventBuffer),
	}, nil
}

// Events delivers permission and hotplug notifications. Delivery never
// blocks the Helper; events are dropped when the buffer is full.
func (h *Helper) Events() <-chan Event {
	return h.events
}

// Drivers runs a discovery scan.
func (h *Helper) Drivers() ([]Driver, error) {
	drivers, err := h.cfg.Prober.FindAllDrivers()
	if err != nil {
		h.log.Warnw("failed to get driver list", "error", err)
		return nil, err
	}
	return drivers, nil
}

// Devices runs a discovery scan and returns one record per recognised device.
func (h *Helper) Devices() ([]SerialDevice, error) {
	drivers, err := h.Drivers()
	if err != nil {
		return nil, err
	}

	h.log.Infow("found usb serial devices", "count", len(drivers))

	devices := make([]SerialDevice, 0, len(drivers))
	for i, d := range drivers {
		dev := d.SerialDevice()
		devices = append(devices, dev)

		h.log.Infow("usb serial device",
			"index", i,
			"name", dev.DeviceName,
			"driver", dev.DriverName,
			"vendor_id", fmt.Sprintf("0x%04x", dev.VendorID),
			"product_id", fmt.Sprintf("0x%04x", dev.ProductID),
			"ports", dev.PortCount,
		)
	}
	return devices, nil
}

// DriverAt returns the driver at index in a fresh scan.
func (h *Helper) DriverAt(index int) (Driver, error) {
	drivers, err := h.Drivers()
	if err != nil {
		return Driver{}, err
	}
	if index < 0 || index >= len(drivers) {
		h.log.Warnw("device index out of range", "index", index, "count", len(drivers))
		return Driver{}, fmt.Errorf("%w: %d (found %d)", ErrDeviceIndexOutOfRange, index, len(drivers))
	}
	return drivers[index], nil
}

// Open connects to port portIndex of device deviceIndex at baudRate, 8N1.
//
// When the process lacks access to the port, permission is requested first.
// A denied request emits EventPermissionDenied and returns ErrPermissionDenied
// without touching the device.
func (h *Helper) Open(deviceIndex, portIndex, baudRate int) error {
	if err := validateBaudRate(h.cfg.Backend, baudRate); err != nil {
		return err
	}

	driver, err := h.DriverAt(deviceIndex)
	if err != nil {
		return err
	}
	return h.OpenDriver(driver, portIndex, baudRate)
}

// OpenDriver is Open for a driver the caller already holds from an earlier
// scan. No rescan happens, so the port opened belongs to exactly that device
// even if others were attached or removed in between.
func (h *Helper) OpenDriver(driver Driver, portIndex, baudRate int) error {
	if err := validateBaudRate(h.cfg.Backend, baudRate); err != nil {
		return err
	}

	info, err := driver.Port(portIndex)
	if err != nil {
		h.log.Warnw("port index out of range", "device", driver.Device.Name, "port", portIndex, "ports", len(driver.Ports))
		return err
	}

	if !h.cfg.Permissions.HasPermission(driver, info) {
		h.log.Warnw("no usb permission, requesting", "port", info.Path)

		granted, err := h.cfg.Permissions.RequestPermission(driver, info)
		if err != nil {
			return fmt.Errorf("permission request for %s failed: %w", info.Path, err)
		}
		if !granted {
			h.emit(Event{Type: EventPermissionDenied, Device: driver.SerialDevice(), Driver: driver, Port: info.Path})
			return fmt.Errorf("%w: %s", ErrPermissionDenied, info.Path)
		}
		h.emit(Event{Type: EventPermissionGranted, Device: driver.SerialDevice(), Driver: driver, Port: info.Path})
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.closeLocked(); err != nil {
		h.log.Warnw("failed to close previous connection", "error", err)
	}

	port, err := h.cfg.openPort(info.Path, h.cfg.Backend)
	if err != nil {
		h.log.Warnw("failed to open serial port", "port", info.Path, "error", err)
		return err
	}

	if err := port.SetParameters(baudRate, DataBits, StopBits, ParityNone); err != nil {
		h.log.Warnw("failed to set port parameters", "port", info.Path, "baud", baudRate, "error", err)
		closeErr := port.Close()
		if errors.Is(closeErr, ErrPortClosed) {
			closeErr = nil
		}
		return multierr.Append(fmt.Errorf("failed to set port parameters: %w", err), closeErr)
	}

	h.driver = &driver
	h.port = port
	h.info = info
	h.baud = baudRate

	h.log.Infow("opened device",
		"device", driver.Device.Name,
		"port", portIndex,
		"path", info.Path,
		"baud", baudRate,
	)
	return nil
}

// Close releases the connection. Closing a closed Helper is a no-op.
func (h *Helper) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeLocked()
}

func (h *Helper) closeLocked() error {
	var err error
	if h.port != nil {
		if cerr := h.port.Close(); cerr != nil && !errors.Is(cerr, ErrPortClosed) {
			err = cerr
		}
		h.log.Infow("device closed", "path", h.info.Path)
	}
	h.port = nil
	h.driver = nil
	h.info = PortInfo{}
	h.baud = 0
	return err
}

// IsOpen reports whether a port is open
func (h *Helper) IsOpen() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.port != nil
}

// Connection returns the open connection, if any
func (h *Helper) Connection() (Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.port == nil || h.driver == nil {
		return Connection{}, false
	}
	return Connection{Driver: *h.driver, Port: h.info, BaudRate: h.baud}, true
}

// Read reads up to maxLength bytes, blocking at most timeout. A read that
// times out with nothing received returns an empty slice and no error. A
// negative timeout is treated as zero: return whatever is already buffered.
func (h *Helper) Read(maxLength int, timeout time.Duration) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.port == nil {
		h.log.Warnw("read on closed port")
		return nil, ErrPortNotOpen
	}

	if maxLength <= 0 {
		maxLength = DefaultMaxReadLength
	}
	// Never block indefinitely while holding the lock Close needs
	if timeout < 0 {
		timeout = 0
	}

	buf := make([]byte, maxLength)
	n, err := h.port.Read(buf, timeout)
	if err != nil {
		h.log.Debugw("read failed", "path", h.info.Path, "error", err)
		return nil, fmt.Errorf("read from %s: %w", h.info.Path, err)
	}
	if n <= 0 {
		return []byte{}, nil
	}
	return buf[:n], nil
}

// Write writes all of data, blocking at most timeout. Writing fewer bytes
// than len(data) is an error.
func (h *Helper) Write(data []byte, timeout time.Duration) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.port == nil {
		h.log.Warnw("write on closed port")
		return ErrPortNotOpen
	}

	n, err := h.port.Write(data, timeout)
	if err != nil {
		h.log.Debugw("write failed", "path", h.info.Path, "error", err)
		return fmt.Errorf("write to %s: %w", h.info.Path, err)
	}
	if n != len(data) {
		h.log.Warnw("short write", "written", n, "expected", len(data))
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(data))
	}

	h.log.Debugw("wrote bytes", "count", n)
	return nil
}

// Watch forwards hotplug events into Events until ctx is done. If the
// device backing the open connection detaches, the connection is closed.
func (h *Helper) Watch(ctx context.Context, opts ...WatcherOption) error {
	opts = append([]WatcherOption{WithWatcherLogger(h.log)}, opts...)
	w := NewWatcher(h.cfg.Prober, opts...)

	events, err := w.Run(ctx)
	if err != nil {
		return err
	}

	for ev := range events {
		if ev.Type == EventDeviceDetached {
			h.closeIfDetached(ev.Driver)
		}
		h.emit(ev)
	}
	return ctx.Err()
}

func (h *Helper) closeIfDetached(d Driver) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.driver == nil || h.driver.Device.key() != d.Device.key() {
		return
	}
	h.log.Warnw("open device detached", "device", d.Device.Name)
	if err := h.closeLocked(); err != nil {
		h.log.Debugw("close after detach failed", "error", err)
	}
}

func (h *Helper) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case h.events <- e:
	default:
		h.log.Debugw("dropping event", "type", e.Type.String())
	}
}
