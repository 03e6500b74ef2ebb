/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] [device]",
	Short: "Send data to a USB serial device",
	Long: `Send data to a USB serial device.

Data can be provided as:
- Command line argument: usbserial send "Hello World" 0
- From stdin (pipe): echo "test data" | usbserial send - 0
- Interactive mode: usbserial send (prompts for input)

The device is an index or VID:PID[:serial] selector and defaults to the
configured device. Use "-" as data to read it from stdin.

Example usage:
  usbserial send "Hello World" 0
  usbserial send "AT+GMR" 0403:6001 --newline
  usbserial send "48656c6c6f" --hex
  echo "test" | usbserial send - 1`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")

		var raw string
		var selArgs []string
		switch len(args) {
		case 0:
			raw, err = dataFromStdinOrPrompt()
		case 1:
			raw, err = dataArg(args[0])
		default:
			raw, err = dataArg(args[0])
			selArgs = args[1:]
		}
		if err != nil {
			return err
		}

		data, err := encodeSendData(raw, hexMode, addNewline)
		if err != nil {
			return err
		}

		sel, err := selectorFrom(selArgs)
		if err != nil {
			return err
		}

		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		return sendData(h, sel, data)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
}

// dataArg returns the data argument, reading stdin for "-"
func dataArg(arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	stdinData, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.TrimRight(string(stdinData), "\r\n"), nil
}

func dataFromStdinOrPrompt() (string, error) {
	if !isInteractive() {
		return dataArg("-")
	}

	prompt := promptui.Prompt{
		Label: "Data to send",
		Validate: func(s string) error {
			if s == "" {
				return errors.New("nothing to send")
			}
			return nil
		},
	}
	return prompt.Run()
}

// encodeSendData turns user input into the bytes to write
func encodeSendData(raw string, hexMode, addNewline bool) ([]byte, error) {
	if hexMode {
		data, err := parseHexInput(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return data, nil
	}

	data := []byte(raw)
	if addNewline {
		data = append(data, '\n')
	}
	return data, nil
}

func sendData(h *usbserial.Helper, sel usbserial.Selector, data []byte) (err error) {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), sel)

	conn, err := openDevice(h, sel)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("✗"), err)
	}
	defer func() {
		err = multierr.Append(err, h.Close())
	}()

	fmt.Printf("%s Connected to %s at %d baud\n", successStyle.Render("✓"), conn.Port.Path, conn.BaudRate)
	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	if err := h.Write(data, viper.GetDuration("write-timeout")); err != nil {
		return fmt.Errorf("%s failed to send data: %w", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), len(data))

	preview := data
	if len(preview) > 50 {
		preview = preview[:50]
	}
	suffix := ""
	if len(data) > 50 {
		suffix = "..."
	}
	fmt.Printf("%s Data: %s%s\n", infoStyle.Render("📋"), printable(preview), suffix)

	return nil
}
