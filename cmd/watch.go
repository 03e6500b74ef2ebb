/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/spf13/cobra"
)

var (
	watchEvents  []string
	watchTimeout time.Duration
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch USB serial devices being attached and detached",
	Long: `Report USB serial devices as they are plugged in and removed.

Devices already present are reported first. Press Ctrl+C to stop.

Examples:
  usbserial watch
  usbserial watch --events detached
  usbserial watch --timeout 30s

Available events: attached, detached`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wanted, err := parseEventFilter(watchEvents)
		if err != nil {
			return fmt.Errorf("error parsing events: %w", err)
		}

		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching for USB serial devices (events: %s)\n", strings.Join(watchEvents, ", "))
		fmt.Println("Press Ctrl+C to stop")
		fmt.Println()

		errCh := make(chan error, 1)
		go func() {
			errCh <- h.Watch(ctx)
		}()

		var idle <-chan time.Time
		resetIdle := func() {
			if watchTimeout > 0 {
				idle = time.After(watchTimeout)
			}
		}
		resetIdle()

		for {
			select {
			case ev := <-h.Events():
				if wanted[ev.Type] {
					printEvent(os.Stdout, ev)
				}
				resetIdle()
			case <-idle:
				fmt.Printf("[%s] Timeout - no device changes\n", time.Now().Format("15:04:05"))
				resetIdle()
			case err := <-errCh:
				if errors.Is(err, context.Canceled) {
					fmt.Println("\nStopping watch...")
					return nil
				}
				return err
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSliceVarP(&watchEvents, "events", "e", []string{"attached", "detached"},
		"Events to report (comma-separated: attached,detached)")
	watchCmd.Flags().DurationVarP(&watchTimeout, "timeout", "t", 0,
		"Report when nothing changed for this long (0 = never)")
}

func parseEventFilter(names []string) (map[usbserial.EventType]bool, error) {
	wanted := make(map[usbserial.EventType]bool)
	if len(names) == 0 {
		wanted[usbserial.EventDeviceAttached] = true
		wanted[usbserial.EventDeviceDetached] = true
		return wanted, nil
	}

	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "attached":
			wanted[usbserial.EventDeviceAttached] = true
		case "detached":
			wanted[usbserial.EventDeviceDetached] = true
		default:
			return nil, fmt.Errorf("unknown event: %s (valid: attached, detached)", name)
		}
	}
	return wanted, nil
}

func printEvent(w io.Writer, ev usbserial.Event) {
	timestamp := ev.Time.Format("15:04:05")
	label := ev.Type.String()
	if ev.Initial {
		label = "present"
	}
	fmt.Fprintf(w, "[%s] %-8s %s\n", timestamp, label, ev.Device)
	for _, p := range ev.Driver.Ports {
		fmt.Fprintf(w, "           port %d: %s\n", p.Index, p.Path)
	}
}
