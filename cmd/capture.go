/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file> [device]",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Polls the selected device and appends every received byte to the output
file. Runs continuously until interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  usbserial capture data.log
  usbserial capture output.txt 0403:6001 --baud 9600
  usbserial capture capture.log 1 --console`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		showConsole, _ := cmd.Flags().GetBool("console")

		sel, err := selectorFrom(args[1:])
		if err != nil {
			return err
		}

		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		return runCapture(h, sel, args[0], showConsole)
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

func runCapture(h *usbserial.Helper, sel usbserial.Selector, outputPath string, showConsole bool) (err error) {
	conn, err := openDevice(h, sel)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer func() {
		err = multierr.Append(err, h.Close())
	}()

	// Open output file in append mode
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", conn.Port.Path, outputPath)
	if showConsole {
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	counter := &countingWriter{w: file}
	var out io.Writer = counter
	if showConsole {
		out = io.MultiWriter(counter, os.Stdout)
	}

	startTime := time.Now()
	err = readLoop(ctx, h, out, readOptions{
		follow:    true,
		raw:       true,
		maxLength: viper.GetInt("max-read"),
		timeout:   viper.GetDuration("read-timeout"),
	})

	duration := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", counter.n, duration.Round(time.Millisecond))
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
