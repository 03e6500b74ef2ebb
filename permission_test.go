package usbserial

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyUSB0")
	if err := os.WriteFile(path, nil, 0o660); err != nil {
		t.Fatalf("create %s: %v", path, err)
	}

	d := testDrivers()[0]
	p := PortInfo{Path: path}
	perms := FilePermissions{}

	if !perms.HasPermission(d, p) {
		t.Error("Expected access to a file we own")
	}

	granted, err := perms.RequestPermission(d, p)
	if err != nil || !granted {
		t.Errorf("RequestPermission = %v, %v; want true, nil", granted, err)
	}
}

func TestFilePermissionsMissingPort(t *testing.T) {
	d := testDrivers()[0]
	p := PortInfo{Path: filepath.Join(t.TempDir(), "ttyUSB9")}
	perms := FilePermissions{}

	if perms.HasPermission(d, p) {
		t.Error("Expected no access to a missing port")
	}

	granted, err := perms.RequestPermission(d, p)
	if granted {
		t.Error("Request should not be granted for a missing port")
	}
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestOwningGroup(t *testing.T) {
	if got := OwningGroup(filepath.Join(t.TempDir(), "missing")); got != "" {
		t.Errorf("OwningGroup on missing file = %q, want empty", got)
	}
	if got := OwningGroup(t.TempDir()); got == "" {
		t.Error("Expected a group for the temp dir")
	}
}

func TestUdevRule(t *testing.T) {
	rule := UdevRule(USBDevice{VendorID: 0x1a86, ProductID: 0x7523})

	for _, want := range []string{
		`SUBSYSTEM=="tty"`,
		`ATTRS{idVendor}=="1a86"`,
		`ATTRS{idProduct}=="7523"`,
		`GROUP="dialout"`,
	} {
		if !strings.Contains(rule, want) {
			t.Errorf("UdevRule missing %s: %s", want, rule)
		}
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventPermissionGranted, "permission-granted"},
		{EventPermissionDenied, "permission-denied"},
		{EventDeviceAttached, "attached"},
		{EventDeviceDetached, "detached"},
		{EventType(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %s, want %s", tt.typ, got, tt.want)
		}
	}
}
