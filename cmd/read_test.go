package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type readResult struct {
	data []byte
	err  error
}

// fakeReader replays results and cancels the loop once they run out
type fakeReader struct {
	results []readResult
	cancel  context.CancelFunc
	calls   int
}

func (f *fakeReader) Read(maxLength int, timeout time.Duration) ([]byte, error) {
	f.calls++
	if len(f.results) == 0 {
		if f.cancel != nil {
			f.cancel()
		}
		return []byte{}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.data, r.err
}

func TestReadLoopSingleRead(t *testing.T) {
	r := &fakeReader{results: []readResult{{data: []byte("OK")}}}
	var out bytes.Buffer

	if err := readLoop(context.Background(), r, &out, readOptions{maxLength: 64}); err != nil {
		t.Fatalf("readLoop failed: %v", err)
	}
	if r.calls != 1 {
		t.Errorf("Expected 1 read, got %d", r.calls)
	}
	if !strings.Contains(out.String(), "|OK|") {
		t.Errorf("Expected hex dump of data, got %q", out.String())
	}
}

func TestReadLoopNoData(t *testing.T) {
	r := &fakeReader{results: []readResult{{data: []byte{}}}}
	var out bytes.Buffer

	if err := readLoop(context.Background(), r, &out, readOptions{}); err != nil {
		t.Fatalf("readLoop failed: %v", err)
	}
	if got := out.String(); got != "No data received\n" {
		t.Errorf("output = %q, want %q", got, "No data received\n")
	}
}

func TestReadLoopRawNoData(t *testing.T) {
	r := &fakeReader{results: []readResult{{data: []byte{}}}}
	var out bytes.Buffer

	if err := readLoop(context.Background(), r, &out, readOptions{raw: true}); err != nil {
		t.Fatalf("readLoop failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output in raw mode, got %q", out.String())
	}
}

func TestReadLoopFollowRaw(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{
		results: []readResult{
			{data: []byte("abc")},
			{data: []byte{}},
			{data: []byte{0x00, 0xff}},
		},
		cancel: cancel,
	}
	var out bytes.Buffer

	if err := readLoop(ctx, r, &out, readOptions{follow: true, raw: true}); err != nil {
		t.Fatalf("readLoop failed: %v", err)
	}
	want := []byte{'a', 'b', 'c', 0x00, 0xff}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("output = %x, want %x", out.Bytes(), want)
	}
}

func TestReadLoopError(t *testing.T) {
	readErr := errors.New("device gone")
	r := &fakeReader{results: []readResult{{data: []byte("x")}, {err: readErr}}}
	var out bytes.Buffer

	err := readLoop(context.Background(), r, &out, readOptions{follow: true})
	if !errors.Is(err, readErr) {
		t.Errorf("Expected read error, got %v", err)
	}
}

func TestReadLoopCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeReader{}
	if err := readLoop(ctx, r, &bytes.Buffer{}, readOptions{follow: true}); err != nil {
		t.Fatalf("readLoop failed: %v", err)
	}
	if r.calls != 0 {
		t.Errorf("Expected no reads after cancel, got %d", r.calls)
	}
}

func TestWriteHexDump(t *testing.T) {
	var out bytes.Buffer
	writeHexDump(&out, 0, []byte("Hello"))

	want := "00000000  48 65 6c 6c 6f" + strings.Repeat(" ", 33) + "  |Hello|\n"
	if got := out.String(); got != want {
		t.Errorf("writeHexDump =\n%q\nwant\n%q", got, want)
	}
}

func TestWriteHexDumpMultipleLines(t *testing.T) {
	var out bytes.Buffer
	data := bytes.Repeat([]byte{'A'}, 20)
	writeHexDump(&out, 0x10, data)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "00000010  41 41") {
		t.Errorf("First line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "00000020  41 41 41 41 ") {
		t.Errorf("Second line = %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], "|AAAA|") {
		t.Errorf("Second line = %q, want ASCII column |AAAA|", lines[1])
	}
}
