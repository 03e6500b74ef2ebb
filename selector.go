package usbserial

import (
	"fmt"
	"strconv"
	"strings"
)

// Selector picks one device out of a scan, either by position or by USB
// identity. Identity selectors survive re-enumeration, indices do not.
type Selector struct {
	Index        int
	VendorID     int
	ProductID    int
	SerialNumber string
	byIdentity   bool
}

// ParseSelector accepts "<index>", "vvvv:pppp" or "vvvv:pppp:serial".
// An empty string selects the first device.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, nil
	}

	if !strings.Contains(s, ":") {
		index, err := strconv.Atoi(s)
		if err != nil || index < 0 {
			return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
		}
		return Selector{Index: index}, nil
	}

	parts := strings.SplitN(s, ":", 3)
	vid, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(parts[0]), "0x"), 16, 16)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: bad vendor id in %q", ErrInvalidSelector, s)
	}
	pid, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(parts[1]), "0x"), 16, 16)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: bad product id in %q", ErrInvalidSelector, s)
	}

	sel := Selector{VendorID: int(vid), ProductID: int(pid), byIdentity: true}
	if len(parts) == 3 {
		sel.SerialNumber = parts[2]
	}
	return sel, nil
}

// SelectorFor returns the most specific identity selector for a driver.
func SelectorFor(d Driver) Selector {
	return Selector{
		VendorID:     d.Device.VendorID,
		ProductID:    d.Device.ProductID,
		SerialNumber: d.Device.SerialNumber,
		byIdentity:   true,
	}
}

// Resolve returns the index of the selected device within drivers.
func (s Selector) Resolve(drivers []Driver) (int, error) {
	if !s.byIdentity {
		if s.Index < 0 || s.Index >= len(drivers) {
			return -1, fmt.Errorf("%w: %d (found %d)", ErrDeviceIndexOutOfRange, s.Index, len(drivers))
		}
		return s.Index, nil
	}

	for i, d := range drivers {
		if d.Device.VendorID != s.VendorID || d.Device.ProductID != s.ProductID {
			continue
		}
		if s.SerialNumber != "" && d.Device.SerialNumber != s.SerialNumber {
			continue
		}
		return i, nil
	}
	return -1, fmt.Errorf("%w: %s", ErrDeviceNotFound, s)
}

func (s Selector) String() string {
	if !s.byIdentity {
		return strconv.Itoa(s.Index)
	}
	id := fmt.Sprintf("%04x:%04x", s.VendorID, s.ProductID)
	if s.SerialNumber != "" {
		id += ":" + s.SerialNumber
	}
	return id
}
