package usbserial

import "time"

// EventType identifies an asynchronous notification from a Helper or Watcher
type EventType int

const (
	EventPermissionGranted EventType = iota
	EventPermissionDenied
	EventDeviceAttached
	EventDeviceDetached
)

func (t EventType) String() string {
	switch t {
	case EventPermissionGranted:
		return "permission-granted"
	case EventPermissionDenied:
		return "permission-denied"
	case EventDeviceAttached:
		return "attached"
	case EventDeviceDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Event is delivered on Helper.Events and Watcher.Events.
type Event struct {
	Type   EventType
	Device SerialDevice
	Driver Driver
	Port   string // tty path for permission events
	// Initial marks attach events from the first scan, i.e. devices that
	// were already present when watching started.
	Initial bool
	Time    time.Time
}
