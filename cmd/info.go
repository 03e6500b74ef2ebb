/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [device]",
	Short: "Display detailed information about a USB serial device",
	Long: `Display detailed information about a USB serial device: driver, USB
identity, every port it exposes with its access state, and a udev rule that
grants access.

The device is an index from 'usbserial list' or a VID:PID[:serial] selector.
Without an argument the configured device is used.

Examples:
  usbserial info 0
  usbserial info 0403:6001`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := selectorFrom(args)
		if err != nil {
			return err
		}

		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		index, driver, err := resolveDriver(h, sel)
		if err != nil {
			return fmt.Errorf("error getting device info: %w", err)
		}

		printDriverInfo(os.Stdout, index, driver, usbserial.FilePermissions{})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printDriverInfo(w io.Writer, index int, d usbserial.Driver, perms usbserial.Permissions) {
	dev := d.Device

	fmt.Fprintf(w, "Device Information: [%d] %s\n\n", index, dev.Name)
	fmt.Fprintf(w, "  Driver:       %s\n", d.Name)
	if d.Kernel != "" {
		fmt.Fprintf(w, "  Kernel:       %s\n", d.Kernel)
	}
	fmt.Fprintf(w, "  Selector:     %s\n", usbserial.SelectorFor(d))

	fmt.Fprintln(w, "\nUSB Device Information:")
	fmt.Fprintf(w, "  Vendor ID:    0x%04x\n", dev.VendorID)
	fmt.Fprintf(w, "  Product ID:   0x%04x\n", dev.ProductID)
	if dev.SerialNumber != "" {
		fmt.Fprintf(w, "  Serial:       %s\n", dev.SerialNumber)
	}
	if dev.BusNumber > 0 {
		fmt.Fprintf(w, "  Bus:          %03d\n", dev.BusNumber)
	}
	if dev.DeviceNumber > 0 {
		fmt.Fprintf(w, "  Device:       %03d\n", dev.DeviceNumber)
	}
	if dev.Manufacturer != "" {
		fmt.Fprintf(w, "  Manufacturer: %s\n", dev.Manufacturer)
	}
	if dev.Product != "" {
		fmt.Fprintf(w, "  Product:      %s\n", dev.Product)
	}

	fmt.Fprintln(w, "\nPorts:")
	for _, p := range d.Ports {
		access := "ok"
		if !perms.HasPermission(d, p) {
			access = "no access"
			if group := usbserial.OwningGroup(p.Path); group != "" {
				access += " (group " + group + ")"
			}
		}
		iface := "-"
		if p.Interface >= 0 {
			iface = fmt.Sprintf("%d", p.Interface)
		}
		fmt.Fprintf(w, "  [%d] %-14s interface %-3s %s\n", p.Index, p.Path, iface, access)
	}

	fmt.Fprintln(w, "\nudev rule:")
	fmt.Fprintf(w, "  %s\n", usbserial.UdevRule(dev))
}
