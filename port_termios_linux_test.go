//go:build linux

package usbserial

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestTimeoutToVTIME(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    uint8
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Millisecond, 1},
		{100 * time.Millisecond, 1},
		{150 * time.Millisecond, 2},
		{time.Second, 10},
		{25500 * time.Millisecond, 255},
		{time.Minute, 255},
	}

	for _, tt := range tests {
		if got := timeoutToVTIME(tt.timeout); got != tt.want {
			t.Errorf("timeoutToVTIME(%v) = %d, want %d", tt.timeout, got, tt.want)
		}
	}
}

func TestGetBaudRate(t *testing.T) {
	for rate := range standardBaudRates {
		if _, err := getBaudRate(rate); err != nil {
			t.Errorf("getBaudRate(%d) failed: %v", rate, err)
		}
	}

	if speed, _ := getBaudRate(9600); speed != unix.B9600 {
		t.Errorf("getBaudRate(9600) = %#o, want B9600", speed)
	}

	for _, rate := range []int{0, 12345, 250000} {
		if _, err := getBaudRate(rate); !errors.Is(err, ErrInvalidBaudRate) {
			t.Errorf("getBaudRate(%d) error = %v, want ErrInvalidBaudRate", rate, err)
		}
	}
}

func TestOpenTermiosMissing(t *testing.T) {
	_, err := openTermios(filepath.Join(t.TempDir(), "ttyUSB9"))
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestTermiosNotATTY(t *testing.T) {
	port, err := openTermios("/dev/null")
	if err != nil {
		t.Skipf("cannot open /dev/null: %v", err)
	}
	defer port.Close()

	if err := port.SetParameters(9600, 8, 1, ParityNone); err == nil {
		t.Error("Expected SetParameters to fail on a non-tty")
	}
}

// openPTY returns the master side and the path of the slave side of a
// pseudo-terminal.
func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()

	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		t.Skipf("pseudo-terminals not available: %v", err)
	}
	fd := int(master.Fd())
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		t.Skipf("unlockpt failed: %v", err)
	}
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		t.Skipf("ptsname failed: %v", err)
	}
	t.Cleanup(func() { master.Close() })
	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func TestTermiosPortPTY(t *testing.T) {
	master, slave := openPTY(t)

	port, err := openTermios(slave)
	if err != nil {
		t.Fatalf("openTermios(%s) failed: %v", slave, err)
	}

	if err := port.SetParameters(115200, 8, 1, ParityNone); err != nil {
		t.Fatalf("SetParameters failed: %v", err)
	}

	// Nothing pending: the read times out empty
	buf := make([]byte, 64)
	n, err := port.Read(buf, 100*time.Millisecond)
	if err != nil || n != 0 {
		t.Errorf("Expected empty read on timeout, got n=%d err=%v", n, err)
	}

	if _, err := master.Write([]byte("ping")); err != nil {
		t.Fatalf("master write failed: %v", err)
	}
	n, err = port.Read(buf, time.Second)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("Read = %q, want %q", buf[:n], "ping")
	}

	n, err = port.Write([]byte("pong"), time.Second)
	if err != nil || n != 4 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	got := make([]byte, 4)
	if _, err := master.Read(got); err != nil {
		t.Fatalf("master read failed: %v", err)
	}
	if string(got) != "pong" {
		t.Errorf("master got %q, want %q", got, "pong")
	}

	if err := port.SetParameters(9600, 9, 1, ParityNone); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for 9 data bits, got %v", err)
	}

	if err := port.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := port.Close(); !errors.Is(err, ErrPortClosed) {
		t.Errorf("Second Close error = %v, want ErrPortClosed", err)
	}
	if _, err := port.Read(buf, 0); !errors.Is(err, ErrPortClosed) {
		t.Errorf("Read after Close error = %v, want ErrPortClosed", err)
	}
}

func TestTermiosWriteTimeout(t *testing.T) {
	_, slave := openPTY(t)

	port, err := openTermios(slave)
	if err != nil {
		t.Fatalf("openTermios(%s) failed: %v", slave, err)
	}
	defer port.Close()
	if err := port.SetParameters(115200, 8, 1, ParityNone); err != nil {
		t.Fatalf("SetParameters failed: %v", err)
	}

	// Nobody drains the master side, so the queue fills up
	data := make([]byte, 1<<20)
	start := time.Now()
	n, err := port.Write(data, 100*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrWriteTimeout) {
		t.Fatalf("Write error = %v, want ErrWriteTimeout", err)
	}
	if n <= 0 || n >= len(data) {
		t.Errorf("Expected a partial write, got %d of %d bytes", n, len(data))
	}
	if elapsed > 2*time.Second {
		t.Errorf("Write took %v, expected it to give up near the timeout", elapsed)
	}
}

func TestPollWritable(t *testing.T) {
	if ready, err := pollWritable(-1, 0); ready || err != nil {
		t.Errorf("pollWritable with no time left = %v, %v; want false, nil", ready, err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	ready, err := pollWritable(int(w.Fd()), 100*time.Millisecond)
	if err != nil || !ready {
		t.Errorf("pollWritable on an empty pipe = %v, %v; want true, nil", ready, err)
	}
}
