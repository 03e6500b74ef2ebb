package usbserial

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Prober discovers the USB-serial devices currently attached to the system.
type Prober interface {
	FindAllDrivers() ([]Driver, error)
}

// DefaultProber returns the sysfs prober when sysfs is available and the
// portable enumerator prober otherwise.
func DefaultProber() Prober {
	if _, err := os.Stat(filepath.Join(defaultSysfsRoot, "class", "tty")); err == nil {
		return &SysfsProber{}
	}
	return EnumeratorProber{}
}

const (
	defaultSysfsRoot = "/sys"
	defaultDevDir    = "/dev"
)

// SysfsProber scans /sys/class/tty for ttys backed by a USB device and groups
// them per USB device.
type SysfsProber struct {
	Root   string // sysfs mount point, defaults to /sys
	DevDir string // device node directory, defaults to /dev
}

// FindAllDrivers returns one Driver per USB device exposing at least one tty,
// ordered by bus and device number.
func (p *SysfsProber) FindAllDrivers() ([]Driver, error) {
	root := p.Root
	if root == "" {
		root = defaultSysfsRoot
	}
	devDir := p.DevDir
	if devDir == "" {
		devDir = defaultDevDir
	}

	classDir := filepath.Join(root, "class", "tty")
	entries, err := os.ReadDir(classDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", classDir, err)
	}

	byDevice := make(map[string]*Driver)
	for _, entry := range entries {
		name := entry.Name()

		// Virtual terminals have no device link
		resolved, err := filepath.EvalSymlinks(filepath.Join(classDir, name, "device"))
		if err != nil {
			continue
		}

		usbDir, ifaceDir := findUSBDevice(resolved)
		if usbDir == "" {
			continue
		}

		drv, ok := byDevice[usbDir]
		if !ok {
			drv = &Driver{Device: readUSBDevice(usbDir)}
			byDevice[usbDir] = drv
		}

		kernel := readDriverLink(resolved)
		if kernel == "" && ifaceDir != "" {
			kernel = readDriverLink(ifaceDir)
		}
		if drv.Kernel == "" {
			drv.Kernel = kernel
		}

		iface := -1
		if ifaceDir != "" {
			if n, err := strconv.ParseInt(readSysfsFile(filepath.Join(ifaceDir, "bInterfaceNumber")), 16, 32); err == nil {
				iface = int(n)
			}
		}

		drv.Ports = append(drv.Ports, PortInfo{
			Path:      filepath.Join(devDir, name),
			Interface: iface,
		})
	}

	drivers := make([]Driver, 0, len(byDevice))
	for _, drv := range byDevice {
		drv.Name = driverName(drv.Kernel, drv.Device.VendorID)
		drivers = append(drivers, *drv)
	}
	sortDrivers(drivers)
	return drivers, nil
}

// findUSBDevice walks up from a tty's device directory to the USB device
// directory (the first ancestor holding idVendor). The interface directory is
// the first ancestor holding bInterfaceNumber.
func findUSBDevice(path string) (usbDir, ifaceDir string) {
	for dir := path; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if ifaceDir == "" && fileExists(filepath.Join(dir, "bInterfaceNumber")) {
			ifaceDir = dir
		}
		if fileExists(filepath.Join(dir, "idVendor")) {
			return dir, ifaceDir
		}
	}
	return "", ""
}

func readUSBDevice(dir string) USBDevice {
	dev := USBDevice{
		SysPath:      dir,
		VendorID:     readSysfsHex(filepath.Join(dir, "idVendor")),
		ProductID:    readSysfsHex(filepath.Join(dir, "idProduct")),
		SerialNumber: readSysfsFile(filepath.Join(dir, "serial")),
		Manufacturer: readSysfsFile(filepath.Join(dir, "manufacturer")),
		Product:      readSysfsFile(filepath.Join(dir, "product")),
		BusNumber:    readSysfsInt(filepath.Join(dir, "busnum")),
		DeviceNumber: readSysfsInt(filepath.Join(dir, "devnum")),
	}
	if dev.BusNumber > 0 && dev.DeviceNumber > 0 {
		dev.Name = usbDeviceNode(dev.BusNumber, dev.DeviceNumber)
	} else {
		dev.Name = filepath.Base(dir)
	}
	return dev
}

// readDriverLink returns the kernel driver bound to a sysfs device, if any.
func readDriverLink(dir string) string {
	target, err := os.Readlink(filepath.Join(dir, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

// readSysfsFile reads a sysfs attribute, returning "" when unavailable
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSysfsHex(path string) int {
	n, err := strconv.ParseUint(readSysfsFile(path), 16, 16)
	if err != nil {
		return 0
	}
	return int(n)
}

func readSysfsInt(path string) int {
	n, err := strconv.Atoi(readSysfsFile(path))
	if err != nil {
		return 0
	}
	return n
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// detailedPortsList is swapped out in tests.
var detailedPortsList = enumerator.GetDetailedPortsList

// EnumeratorProber discovers devices through go.bug.st/serial/enumerator.
// It works on every platform the enumerator supports but knows nothing about
// kernel drivers or USB interfaces.
type EnumeratorProber struct{}

// FindAllDrivers groups the enumerator's USB ports by VID, PID and serial
// number. Ports without a serial number are reported as separate devices.
func (EnumeratorProber) FindAllDrivers() ([]Driver, error) {
	ports, err := detailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate ports: %w", err)
	}

	byDevice := make(map[string]*Driver)
	var order []string
	for _, port := range ports {
		if port == nil || !port.IsUSB {
			continue
		}

		vid, err := strconv.ParseUint(port.VID, 16, 16)
		if err != nil {
			continue
		}
		pid, err := strconv.ParseUint(port.PID, 16, 16)
		if err != nil {
			continue
		}

		// Without a serial number two identical adapters are indistinguishable,
		// so each port stands for its own device.
		key := port.Name
		if port.SerialNumber != "" {
			key = strings.ToLower(port.VID + ":" + port.PID + ":" + port.SerialNumber)
		}
		drv, ok := byDevice[key]
		if !ok {
			drv = &Driver{Device: USBDevice{
				Name:         port.Name,
				VendorID:     int(vid),
				ProductID:    int(pid),
				SerialNumber: port.SerialNumber,
				Product:      port.Product,
			}}
			byDevice[key] = drv
			order = append(order, key)
		}
		drv.Ports = append(drv.Ports, PortInfo{Path: port.Name, Interface: -1})
	}

	drivers := make([]Driver, 0, len(order))
	for _, key := range order {
		drv := byDevice[key]
		drv.Name = driverName("", drv.Device.VendorID)
		drivers = append(drivers, *drv)
	}
	sortDrivers(drivers)
	return drivers, nil
}

// sortDrivers orders drivers and their ports deterministically and assigns
// port indices so that the same hardware gets the same indices on every scan.
func sortDrivers(drivers []Driver) {
	for i := range drivers {
		ports := drivers[i].Ports
		sort.SliceStable(ports, func(a, b int) bool {
			if ports[a].Interface != ports[b].Interface {
				return ports[a].Interface < ports[b].Interface
			}
			return ports[a].Path < ports[b].Path
		})
		for j := range ports {
			ports[j].Index = j
		}
		if drivers[i].Device.Name == "" && len(ports) > 0 {
			drivers[i].Device.Name = ports[0].Path
		}
	}

	sort.SliceStable(drivers, func(a, b int) bool {
		da, db := drivers[a].Device, drivers[b].Device
		if da.BusNumber != db.BusNumber {
			return da.BusNumber < db.BusNumber
		}
		if da.DeviceNumber != db.DeviceNumber {
			return da.DeviceNumber < db.DeviceNumber
		}
		if da.SysPath != db.SysPath {
			return da.SysPath < db.SysPath
		}
		return firstPort(drivers[a]) < firstPort(drivers[b])
	})
}

func firstPort(d Driver) string {
	if len(d.Ports) == 0 {
		return ""
	}
	return d.Ports[0].Path
}
