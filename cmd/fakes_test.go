package cmd

import (
	usbserial "github.com/allbin/go-usbserial"
)

// testDrivers returns a dual-port FTDI adapter and an Arduino
func testDrivers() []usbserial.Driver {
	return []usbserial.Driver{
		{
			Device: usbserial.USBDevice{
				Name:         "/dev/bus/usb/001/004",
				VendorID:     0x0403,
				ProductID:    0x6010,
				SerialNumber: "FT1234",
				BusNumber:    1,
				DeviceNumber: 4,
			},
			Name:   "FtdiSerialDriver",
			Kernel: "ftdi_sio",
			Ports: []usbserial.PortInfo{
				{Index: 0, Path: "/dev/ttyUSB0", Interface: 0},
				{Index: 1, Path: "/dev/ttyUSB1", Interface: 1},
			},
		},
		{
			Device: usbserial.USBDevice{
				Name:      "/dev/bus/usb/001/007",
				VendorID:  0x2341,
				ProductID: 0x0043,
			},
			Name:  "CdcAcmSerialDriver",
			Ports: []usbserial.PortInfo{{Index: 0, Path: "/dev/ttyACM0", Interface: -1}},
		},
	}
}

type fakeProber struct {
	drivers []usbserial.Driver
	err     error
}

func (f fakeProber) FindAllDrivers() ([]usbserial.Driver, error) {
	return f.drivers, f.err
}

// fakePermissions grants access to every port in allowed
type fakePermissions struct {
	allowed map[string]bool
}

func (f fakePermissions) HasPermission(_ usbserial.Driver, p usbserial.PortInfo) bool {
	return f.allowed[p.Path]
}

func (f fakePermissions) RequestPermission(d usbserial.Driver, p usbserial.PortInfo) (bool, error) {
	return f.HasPermission(d, p), nil
}
