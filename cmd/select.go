/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/allbin/go-usbserial/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errSelectionCancelled is returned when the picker is left without a choice
var errSelectionCancelled = errors.New("no device selected")

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the default device and port",
	Long: `Show attached USB serial devices in a table and store the chosen device
and port as defaults in the config file.

The device is stored by USB identity (vendor:product[:serial]) so the choice
survives re-plugging and reordering. The baud rate given with --baud is
stored as well.`,
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

		picker := components.NewDevicePicker(drivers)
		if _, err := tea.NewProgram(picker).Run(); err != nil {
			return fmt.Errorf("device picker failed: %w", err)
		}

		choice, ok := picker.Chosen()
		if !ok {
			return errSelectionCancelled
		}

		if err := saveChoice(choice); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		port, err := choice.Driver.Port(choice.PortIndex)
		if err != nil {
			return err
		}

		okStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
		fmt.Printf("%s Default device %s, port %d (%s) saved to %s\n",
			okStyle.Render("✓"),
			choice.Selector(),
			choice.PortIndex,
			port.Path,
			viper.ConfigFileUsed(),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}

// saveChoice stores the chosen device, port and current baud rate
func saveChoice(choice components.DeviceChoice) error {
	viper.Set("device", choice.Selector().String())
	viper.Set("port", choice.PortIndex)
	viper.Set("baud", viper.GetInt("baud"))
	return writeConfig()
}
