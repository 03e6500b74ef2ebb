package usbserial

import (
	"fmt"
	"strings"
)

// SerialDevice is the descriptive record produced by a discovery scan.
// It is transient: nothing is persisted between scans.
type SerialDevice struct {
	DeviceName string
	DriverName string
	VendorID   int
	ProductID  int
	PortCount  int
}

// String renders the one-line summary used by list output and logs.
func (d SerialDevice) String() string {
	return fmt.Sprintf("%s (%s) - VID:0x%04x PID:0x%04x",
		d.DeviceName, d.DriverName, d.VendorID, d.ProductID)
}

// USBDevice identifies the attached USB device backing a driver.
type USBDevice struct {
	Name         string // device node, e.g. /dev/bus/usb/001/004
	SysPath      string // sysfs directory holding idVendor/idProduct
	VendorID     int
	ProductID    int
	SerialNumber string
	Manufacturer string
	Product      string
	BusNumber    int
	DeviceNumber int
}

// VIDPID returns the "vvvv:pppp" identity of the device.
func (d USBDevice) VIDPID() string {
	return fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID)
}

// key identifies the device across scans.
func (d USBDevice) key() string {
	if d.SysPath != "" {
		return d.SysPath
	}
	return d.VIDPID() + ":" + d.SerialNumber + ":" + d.Name
}

// PortInfo is one serial port exposed by a driver.
type PortInfo struct {
	Index     int
	Path      string // tty node, e.g. /dev/ttyUSB0
	Interface int    // USB interface number, -1 when unknown
}

// Driver is one USB device recognised by a Prober together with its ports.
type Driver struct {
	Device USBDevice
	Name   string // driver class name, e.g. FtdiSerialDriver
	Kernel string // kernel driver, e.g. ftdi_sio (empty when unknown)
	Ports  []PortInfo
}

// SerialDevice projects the driver into its descriptive record.
func (d Driver) SerialDevice() SerialDevice {
	return SerialDevice{
		DeviceName: d.Device.Name,
		DriverName: d.Name,
		VendorID:   d.Device.VendorID,
		ProductID:  d.Device.ProductID,
		PortCount:  len(d.Ports),
	}
}

// Port returns the port at index.
func (d Driver) Port(index int) (PortInfo, error) {
	if index < 0 || index >= len(d.Ports) {
		return PortInfo{}, fmt.Errorf("%w: %d (device has %d)", ErrPortIndexOutOfRange, index, len(d.Ports))
	}
	return d.Ports[index], nil
}

var kernelDriverNames = map[string]string{
	"cdc_acm":  "CdcAcmSerialDriver",
	"ftdi_sio": "FtdiSerialDriver",
	"cp210x":   "Cp21xxSerialDriver",
	"ch341":    "Ch34xSerialDriver",
	"pl2303":   "ProlificSerialDriver",
}

var vendorDriverNames = map[int]string{
	0x0403: "FtdiSerialDriver",
	0x10c4: "Cp21xxSerialDriver",
	0x1a86: "Ch34xSerialDriver",
	0x067b: "ProlificSerialDriver",
}

// driverName derives the driver class name from the kernel driver, falling
// back on well-known vendor IDs.
func driverName(kernel string, vendorID int) string {
	if name, ok := kernelDriverNames[strings.ToLower(kernel)]; ok {
		return name
	}
	if name, ok := vendorDriverNames[vendorID]; ok {
		return name
	}
	if kernel != "" {
		return kernel
	}
	return "UnknownSerialDriver"
}

// usbDeviceNode returns the usbfs node for a bus/device pair.
func usbDeviceNode(bus, dev int) string {
	return fmt.Sprintf("/dev/bus/usb/%03d/%03d", bus, dev)
}
