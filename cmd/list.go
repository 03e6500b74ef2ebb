/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached USB serial devices",
	Long: `List all USB serial devices attached to the system.

Each line shows the device index, the USB device node, the driver and the
vendor and product IDs. The index or the VID:PID pair can be used to select
the device in other commands.

Devices without a tty (no kernel driver bound) are not listed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		drivers, err := h.Drivers()
		if err != nil {
			return fmt.Errorf("error listing devices: %w", err)
		}

		if len(drivers) == 0 {
			fmt.Println("No USB serial devices found")
			return nil
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if tableFormat {
			renderTable(os.Stdout, drivers)
		} else {
			renderSimple(os.Stdout, drivers)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// renderSimple prints one summary line per device
func renderSimple(w io.Writer, drivers []usbserial.Driver) {
	for i, d := range drivers {
		fmt.Fprintf(w, "[%d] %s\n", i, d.SerialDevice())
	}
}

// renderTable renders the device list in a styled static table format
func renderTable(w io.Writer, drivers []usbserial.Driver) {
	fmt.Fprintf(w, "Found %d USB serial device(s):\n\n", len(drivers))

	// Define column widths
	indexWidth := 3
	nameWidth := 22
	driverWidth := 22
	idWidth := 10
	portsWidth := 24

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s",
		indexWidth, "#",
		nameWidth, "Device",
		driverWidth, "Driver",
		idWidth, "VID:PID",
		portsWidth, "Ports")
	fmt.Fprintln(w, headerStyle.Render(header))

	for i, d := range drivers {
		row := fmt.Sprintf("%-*d %-*s %-*s %-*s %-*s",
			indexWidth, i,
			nameWidth, d.Device.Name,
			driverWidth, d.Name,
			idWidth, d.Device.VIDPID(),
			portsWidth, portList(d))
		fmt.Fprintln(w, cellStyle.Render(row))
	}
}

func portList(d usbserial.Driver) string {
	s := ""
	for i, p := range d.Ports {
		if i > 0 {
			s += ", "
		}
		s += p.Path
	}
	return s
}
