/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
	"github.com/spf13/viper"
)

// selectorFrom returns the selector given on the command line, falling back
// on the configured device
func selectorFrom(args []string) (usbserial.Selector, error) {
	s := viper.GetString("device")
	if len(args) > 0 {
		s = args[0]
	}
	return usbserial.ParseSelector(s)
}

// resolveDriver runs a scan and returns the selected driver with its index
func resolveDriver(h *usbserial.Helper, sel usbserial.Selector) (int, usbserial.Driver, error) {
	drivers, err := h.Drivers()
	if err != nil {
		return -1, usbserial.Driver{}, err
	}
	if len(drivers) == 0 {
		return -1, usbserial.Driver{}, fmt.Errorf("%w: no USB serial devices attached", usbserial.ErrDeviceNotFound)
	}

	index, err := sel.Resolve(drivers)
	if err != nil {
		return -1, usbserial.Driver{}, err
	}
	return index, drivers[index], nil
}

// openDevice opens the selected device with the configured port and baud
// rate. The driver from the resolving scan is opened as is, never looked up
// again by index. When access is denied it explains how to fix it and, on a terminal,
// offers to try again.
func openDevice(h *usbserial.Helper, sel usbserial.Selector) (usbserial.Connection, error) {
	portIndex := viper.GetInt("port")
	baud := viper.GetInt("baud")

	for {
		_, driver, err := resolveDriver(h, sel)
		if err != nil {
			return usbserial.Connection{}, err
		}

		err = h.OpenDriver(driver, portIndex, baud)
		if err == nil {
			conn, _ := h.Connection()
			return conn, nil
		}
		if !errors.Is(err, usbserial.ErrPermissionDenied) {
			return usbserial.Connection{}, err
		}

		printPermissionHelp(driver, portIndex)
		if !isInteractive() || !confirm("Retry now") {
			return usbserial.Connection{}, err
		}
	}
}

func printPermissionHelp(d usbserial.Driver, portIndex int) {
	warnStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)
	codeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	path := ""
	if p, err := d.Port(portIndex); err == nil {
		path = p.Path
	}

	fmt.Fprintf(os.Stderr, "%s No permission to use %s\n", warnStyle.Render("⚠"), path)
	if group := usbserial.OwningGroup(path); group != "" {
		fmt.Fprintf(os.Stderr, "\nAdd yourself to the %q group and log in again:\n", group)
		fmt.Fprintln(os.Stderr, codeStyle.Render(fmt.Sprintf("  sudo usermod -aG %s $USER", group)))
	}
	fmt.Fprintln(os.Stderr, "\nOr install a udev rule, e.g. /etc/udev/rules.d/99-usbserial.rules:")
	fmt.Fprintln(os.Stderr, codeStyle.Render("  "+usbserial.UdevRule(d.Device)))
	fmt.Fprintln(os.Stderr, codeStyle.Render("  sudo udevadm control --reload-rules && sudo udevadm trigger"))
	fmt.Fprintln(os.Stderr)
}

// confirm asks a yes/no question on the terminal
func confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}

// isInteractive reports whether stdin is a terminal
func isInteractive() bool {
	stat, err := os.Stdin.Stat()
	return err == nil && (stat.Mode()&os.ModeCharDevice) != 0
}
