package usbserial

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Permissions decides whether the current process may use a port, and asks
// for access when it may not.
type Permissions interface {
	HasPermission(d Driver, p PortInfo) bool
	// RequestPermission returns true once access is granted. A false result
	// with a nil error means the request was denied.
	RequestPermission(d Driver, p PortInfo) (bool, error)
}

// FilePermissions checks read/write access to the tty node. A request cannot
// prompt the OS, so it re-checks and logs how to grant access.
type FilePermissions struct {
	Logger *zap.SugaredLogger
}

func (f FilePermissions) HasPermission(_ Driver, p PortInfo) bool {
	return unix.Access(p.Path, unix.R_OK|unix.W_OK) == nil
}

func (f FilePermissions) RequestPermission(d Driver, p PortInfo) (bool, error) {
	if f.HasPermission(d, p) {
		return true, nil
	}
	if _, err := os.Stat(p.Path); err != nil {
		return false, fmt.Errorf("%w: %s", ErrDeviceNotFound, p.Path)
	}

	log := f.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log.Warnw("no permission for serial port",
		"port", p.Path,
		"group", OwningGroup(p.Path),
		"udev_rule", UdevRule(d.Device),
	)
	return false, nil
}

// OwningGroup returns the group owning the tty node, e.g. "dialout", or ""
// when it cannot be determined.
func OwningGroup(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	gid := strconv.FormatUint(uint64(st.Gid), 10)
	if g, err := user.LookupGroupId(gid); err == nil {
		return g.Name
	}
	return gid
}

// UdevRule renders a rule granting the dialout group access to the device.
func UdevRule(d USBDevice) string {
	return fmt.Sprintf(`SUBSYSTEM=="tty", ATTRS{idVendor}=="%04x", ATTRS{idProduct}=="%04x", MODE="0660", GROUP="dialout"`,
		d.VendorID, d.ProductID)
}
