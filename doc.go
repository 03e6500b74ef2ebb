// Package usbserial finds USB-serial adapters, checks that the process may
// use them, and runs simple blocking read/write I/O over one port at a time.
//
// # Basic Usage
//
// List devices, then open the first port of the first device at 9600 8N1:
//
//	h, err := usbserial.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	devices, err := h.Devices()
//	for i, d := range devices {
//	    fmt.Printf("[%d] %s\n", i, d)
//	}
//
//	if err := h.Open(0, 0, 9600); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = h.Write([]byte("AT\r\n"), time.Second)
//	data, err := h.Read(1024, time.Second) // empty, nil on timeout
//
// # Discovery
//
// A Prober scans for devices. SysfsProber reads /sys/class/tty and knows the
// kernel driver and USB interface of every port; EnumeratorProber uses
// go.bug.st/serial/enumerator and works wherever that package does.
// DefaultProber picks the sysfs prober when sysfs is mounted.
//
// Devices are addressed by index in the scan, or through a Selector
// ("vvvv:pppp" or "vvvv:pppp:serial") that survives re-enumeration:
//
//	sel, _ := usbserial.ParseSelector("0403:6001")
//	drivers, _ := h.Drivers()
//	index, err := sel.Resolve(drivers)
//
// # Permissions
//
// Open checks access to the tty before touching it. Without access it asks
// the configured Permissions for it; a denied request emits
// EventPermissionDenied on Events and Open returns ErrPermissionDenied.
// UdevRule renders a rule that grants access permanently.
//
// # Hotplug
//
// Watcher (or Helper.Watch) reports EventDeviceAttached and
// EventDeviceDetached. Helper.Watch also closes the open connection when its
// device goes away.
//
// # Backends
//
//   - BackendNative: go.bug.st/serial (default)
//   - BackendTermios: raw termios ioctls via golang.org/x/sys/unix, Linux only
//
// # Error Handling
//
// Use errors.Is() with the predefined errors:
//
//	if errors.Is(err, usbserial.ErrPermissionDenied) {
//	    fmt.Println(usbserial.UdevRule(driver.Device))
//	}
package usbserial
