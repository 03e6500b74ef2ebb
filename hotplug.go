package usbserial

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports USB-serial devices appearing and disappearing. It watches
// the device directory for tty nodes and rescans through a Prober.
type Watcher struct {
	prober   Prober
	devDir   string
	debounce time.Duration
	log      *zap.SugaredLogger

	known map[string]Driver
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithDevDir sets the directory watched for tty nodes (default /dev)
func WithDevDir(dir string) WatcherOption {
	return func(w *Watcher) { w.devDir = dir }
}

// WithDebounce sets how long a burst of tty events is coalesced before rescanning
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger sets the logger
func WithWatcherLogger(l *zap.SugaredLogger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWatcher creates a Watcher. Nothing is watched until Run.
func NewWatcher(prober Prober, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		prober:   prober,
		devDir:   defaultDevDir,
		debounce: 250 * time.Millisecond,
		log:      zap.NewNop().Sugar(),
		known:    make(map[string]Driver),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts watching. The first scan reports every present device as
// attached with Initial set. The returned channel is closed when ctx is done
// or the underlying watch fails.
func (w *Watcher) Run(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(w.devDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", w.devDir, err)
	}

	ch := make(chan Event, 16)
	rescan := make(chan struct{}, 1)
	trigger := func() {
		select {
		case rescan <- struct{}{}:
		default:
		}
	}
	debounced := debounce.New(w.debounce)

	go func() {
		defer close(ch)
		defer fsw.Close()

		w.scan(ctx, ch, true)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !strings.HasPrefix(filepath.Base(event.Name), "tty") {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				debounced(trigger)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.log.Warnw("fsnotify error", "error", err)
			case <-rescan:
				w.scan(ctx, ch, false)
			}
		}
	}()

	return ch, nil
}

func (w *Watcher) scan(ctx context.Context, ch chan<- Event, initial bool) {
	drivers, err := w.prober.FindAllDrivers()
	if err != nil {
		w.log.Warnw("hotplug rescan failed", "error", err)
		return
	}

	attached, detached, current := diffDrivers(w.known, drivers)
	w.known = current

	now := time.Now()
	for _, d := range detached {
		w.log.Infow("usb serial device detached", "device", d.Device.Name)
		if !send(ctx, ch, Event{Type: EventDeviceDetached, Device: d.SerialDevice(), Driver: d, Time: now}) {
			return
		}
	}
	for _, d := range attached {
		w.log.Infow("usb serial device attached",
			"device", d.Device.Name,
			"driver", d.Name,
			"vid_pid", d.Device.VIDPID(),
		)
		if !send(ctx, ch, Event{Type: EventDeviceAttached, Device: d.SerialDevice(), Driver: d, Initial: initial, Time: now}) {
			return
		}
	}
}

func send(ctx context.Context, ch chan<- Event, e Event) bool {
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// diffDrivers compares a scan against the previously known devices. Attached
// keeps scan order, detached is ordered by device key.
func diffDrivers(known map[string]Driver, scan []Driver) (attached, detached []Driver, current map[string]Driver) {
	current = make(map[string]Driver, len(scan))
	for _, d := range scan {
		key := d.Device.key()
		current[key] = d
		if _, ok := known[key]; !ok {
			attached = append(attached, d)
		}
	}

	keys := make([]string, 0, len(known))
	for key := range known {
		if _, ok := current[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		detached = append(detached, known[key])
	}
	return attached, detached, current
}
