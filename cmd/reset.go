/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [device]",
	Short: "Reset a USB serial device",
	Long: `Perform a USB-level reset on a serial device. This can recover devices
that are hung or unresponsive without physically unplugging them.

The device will re-enumerate after reset, which may change its index and tty
path. Select it by VID:PID[:serial] to find it again reliably.

Requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo usbserial reset 0                     # Reset by index
  sudo usbserial reset 0403:6001:NC7ILXW1    # Reset by identity`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !usbserial.IsUSBResetAvailable() {
			fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
			return usbserial.ErrUSBResetNotAvailable
		}

		sel, err := selectorFrom(args)
		if err != nil {
			return err
		}

		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		_, driver, err := resolveDriver(h, sel)
		if err != nil {
			return err
		}

		fmt.Printf("Resetting USB device: %s\n", driver.SerialDevice())
		if err := usbserial.ResetDevice(driver.Device); err != nil {
			if errors.Is(err, usbserial.ErrUSBInfoNotAvailable) {
				fmt.Fprintln(os.Stderr, "The bus and device numbers of this device are unknown")
			}
			return err
		}

		fmt.Println("USB device reset successfully")
		fmt.Println("Device will re-enumerate (index and tty path may change)")
		fmt.Printf("\nSelect it again with: %s\n", usbserial.SelectorFor(driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
