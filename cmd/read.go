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
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read [device]",
	Short: "Read data from a USB serial device",
	Long: `Open a USB serial device and read from it.

By default a single read is performed: it returns whatever arrives within the
read timeout, up to --max bytes. With --follow the device is polled until
interrupted with Ctrl+C.

Received data is printed as a hex dump with an ASCII column, or unmodified
with --raw.

Example usage:
  usbserial read 0
  usbserial read 0403:6001 --follow --baud 115200
  usbserial read --follow --raw > capture.bin`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		follow, _ := cmd.Flags().GetBool("follow")
		raw, _ := cmd.Flags().GetBool("raw")

		sel, err := selectorFrom(args)
		if err != nil {
			return err
		}

		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		conn, err := openDevice(h, sel)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, h.Close())
		}()

		if !raw {
			infoStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("99")).
				Bold(true)
			fmt.Fprintf(os.Stderr, "%s Reading %s at %d baud\n", infoStyle.Render("⚡"), conn.Port.Path, conn.BaudRate)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return readLoop(ctx, h, os.Stdout, readOptions{
			follow:    follow,
			raw:       raw,
			maxLength: viper.GetInt("max-read"),
			timeout:   viper.GetDuration("read-timeout"),
		})
	},
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().BoolP("follow", "f", false, "Keep reading until interrupted")
	readCmd.Flags().Bool("raw", false, "Write received bytes unmodified")
	readCmd.Flags().IntP("max", "m", usbserial.DefaultMaxReadLength, "Maximum number of bytes per read")
	_ = viper.BindPFlag("max-read", readCmd.Flags().Lookup("max"))
}

type readOptions struct {
	follow    bool
	raw       bool
	maxLength int
	timeout   time.Duration
}

// reader is the part of the Helper used by readLoop
type reader interface {
	Read(maxLength int, timeout time.Duration) ([]byte, error)
}

func readLoop(ctx context.Context, r reader, w io.Writer, opts readOptions) error {
	var offset int
	for {
		if ctx.Err() != nil {
			return nil
		}

		data, err := r.Read(opts.maxLength, opts.timeout)
		if err != nil {
			return err
		}

		if len(data) > 0 {
			if opts.raw {
				if _, err := w.Write(data); err != nil {
					return err
				}
			} else {
				writeHexDump(w, offset, data)
			}
			offset += len(data)
		}

		if !opts.follow {
			if offset == 0 && !opts.raw {
				fmt.Fprintln(w, "No data received")
			}
			return nil
		}
	}
}

// writeHexDump prints data 16 bytes per line with offsets and an ASCII column
func writeHexDump(w io.Writer, offset int, data []byte) {
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[i:end]
		fmt.Fprintf(w, "%08x  % -47x  |%s|\n", offset+i, line, printable(line))
	}
}
