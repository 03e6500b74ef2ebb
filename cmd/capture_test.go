package cmd

import (
	"bytes"
	"context"
	"testing"
)

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	c := &countingWriter{w: &buf}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{
		results: []readResult{{data: []byte("abc")}, {data: []byte("defg")}},
		cancel:  cancel,
	}

	if err := readLoop(ctx, r, c, readOptions{follow: true, raw: true}); err != nil {
		t.Fatalf("readLoop failed: %v", err)
	}
	if c.n != 7 {
		t.Errorf("counted %d bytes, want 7", c.n)
	}
	if buf.String() != "abcdefg" {
		t.Errorf("captured %q, want abcdefg", buf.String())
	}
}
