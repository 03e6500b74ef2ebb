package usbserial

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// switchProber returns whatever drivers were last set.
type switchProber struct {
	mu      sync.Mutex
	drivers []Driver
}

func (s *switchProber) set(drivers []Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers = drivers
}

func (s *switchProber) FindAllDrivers() ([]Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Driver(nil), s.drivers...), nil
}

func TestDiffDrivers(t *testing.T) {
	drivers := testDrivers()
	a, b := drivers[0], drivers[1]

	attached, detached, current := diffDrivers(map[string]Driver{}, []Driver{a, b})
	if len(attached) != 2 || len(detached) != 0 {
		t.Fatalf("first scan: attached=%d detached=%d", len(attached), len(detached))
	}
	if attached[0].Device.key() != a.Device.key() {
		t.Error("attached should keep scan order")
	}

	attached, detached, current = diffDrivers(current, []Driver{b})
	if len(attached) != 0 || len(detached) != 1 {
		t.Fatalf("second scan: attached=%d detached=%d", len(attached), len(detached))
	}
	if detached[0].Device.key() != a.Device.key() {
		t.Errorf("Expected %s detached", a.Device.Name)
	}

	attached, detached, _ = diffDrivers(current, []Driver{b})
	if len(attached) != 0 || len(detached) != 0 {
		t.Errorf("unchanged scan: attached=%d detached=%d", len(attached), len(detached))
	}
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestWatcherRun(t *testing.T) {
	devDir := t.TempDir()
	drivers := testDrivers()

	prober := &switchProber{}
	prober.set(drivers[1:])

	w := NewWatcher(prober, WithDevDir(devDir), WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ev := nextEvent(t, events)
	if ev.Type != EventDeviceAttached || !ev.Initial || ev.Driver.Kernel != "cdc_acm" {
		t.Errorf("Unexpected initial event %+v", ev)
	}

	// A new tty node triggers a rescan
	prober.set(drivers)
	if err := os.WriteFile(filepath.Join(devDir, "ttyUSB0"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	ev = nextEvent(t, events)
	if ev.Type != EventDeviceAttached || ev.Initial || ev.Device.DriverName != "FtdiSerialDriver" {
		t.Errorf("Unexpected attach event %+v", ev)
	}

	prober.set(drivers[:1])
	if err := os.Remove(filepath.Join(devDir, "ttyUSB0")); err != nil {
		t.Fatal(err)
	}
	ev = nextEvent(t, events)
	if ev.Type != EventDeviceDetached || ev.Driver.Kernel != "cdc_acm" {
		t.Errorf("Unexpected detach event %+v", ev)
	}

	cancel()
	for range events {
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := NewWatcher(&switchProber{}, WithDevDir(filepath.Join(t.TempDir(), "missing")))
	if _, err := w.Run(context.Background()); err == nil {
		t.Error("Expected error watching a missing directory")
	}
}

func TestHelperWatchClosesDetached(t *testing.T) {
	devDir := t.TempDir()
	drivers := testDrivers()

	prober := &switchProber{}
	prober.set(drivers)

	h, err := New(
		WithProber(prober),
		WithPermissions(&fakePermissions{has: true}),
		withPortOpener(func(string, Backend) (Port, error) { return &fakePort{}, nil }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := h.Open(0, 0, 9600); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx, WithDevDir(devDir), WithDebounce(10*time.Millisecond)) }()

	// Two initial attach events
	for i := 0; i < 2; i++ {
		if ev := nextEvent(t, h.Events()); ev.Type != EventDeviceAttached {
			t.Fatalf("Expected attach event, got %s", ev.Type)
		}
	}

	prober.set(drivers[1:])
	if err := os.WriteFile(filepath.Join(devDir, "ttyUSB7"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if ev := nextEvent(t, h.Events()); ev.Type != EventDeviceDetached {
		t.Fatalf("Expected detach event, got %s", ev.Type)
	}
	if h.IsOpen() {
		t.Error("Connection should be closed after its device detached")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Watch returned %v, want context.Canceled", err)
	}
}
