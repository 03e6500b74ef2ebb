package usbserial

import (
	"errors"
	"testing"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"  2 ", "2", false},
		{"0403:6001", "0403:6001", false},
		{"0x0403:0x6001", "0403:6001", false},
		{"10C4:EA60", "10c4:ea60", false},
		{"0403:6001:FT1234", "0403:6001:FT1234", false},
		{"-1", "", true},
		{"abc", "", true},
		{"zz:6001", "", true},
		{"0403:", "", true},
		{"12345:6001", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sel, err := ParseSelector(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSelector(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidSelector) {
					t.Errorf("Expected ErrInvalidSelector, got %v", err)
				}
				return
			}
			if sel.String() != tt.want {
				t.Errorf("ParseSelector(%q) = %s, want %s", tt.input, sel, tt.want)
			}
		})
	}
}

func TestSelectorResolve(t *testing.T) {
	drivers := testDrivers()
	drivers[0].Device.SerialNumber = "FT1234"

	tests := []struct {
		selector string
		want     int
		wantErr  error
	}{
		{"", 0, nil},
		{"1", 1, nil},
		{"2", -1, ErrDeviceIndexOutOfRange},
		{"2341:0043", 1, nil},
		{"0403:6010:FT1234", 0, nil},
		{"0403:6010:OTHER", -1, ErrDeviceNotFound},
		{"dead:beef", -1, ErrDeviceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			sel, err := ParseSelector(tt.selector)
			if err != nil {
				t.Fatalf("ParseSelector failed: %v", err)
			}
			got, err := sel.Resolve(drivers)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectorFor(t *testing.T) {
	drivers := testDrivers()
	drivers[0].Device.SerialNumber = "FT1234"

	sel := SelectorFor(drivers[0])
	if sel.String() != "0403:6010:FT1234" {
		t.Errorf("SelectorFor = %s", sel)
	}

	// Survives reordering of the scan
	reordered := []Driver{drivers[1], drivers[0]}
	index, err := sel.Resolve(reordered)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if index != 1 {
		t.Errorf("Expected index 1 after reorder, got %d", index)
	}
}
