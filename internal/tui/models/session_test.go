package models

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/allbin/go-usbserial/internal/tui/components"
)

type fakeConn struct {
	data     []byte
	readErr  error
	writeErr error

	written     [][]byte
	readMax     int
	readTimeout time.Duration
}

func (f *fakeConn) Read(maxLength int, timeout time.Duration) ([]byte, error) {
	f.readMax = maxLength
	f.readTimeout = timeout
	return f.data, f.readErr
}

func (f *fakeConn) Write(data []byte, timeout time.Duration) error {
	f.written = append(f.written, data)
	return f.writeErr
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(&fakeConn{}, Settings{})

	if got := s.Settings().PollInterval; got != 50*time.Millisecond {
		t.Errorf("PollInterval = %v, want 50ms", got)
	}
	if !s.IsConnected() {
		t.Error("Expected new session to be connected")
	}
	if s.IsPolling() {
		t.Error("Expected no polling before Poll")
	}
	if s.GetInputMode() != InputModeNormal {
		t.Errorf("Expected normal mode, got %v", s.GetInputMode())
	}
}

func TestSessionPoll(t *testing.T) {
	s := NewSession(&fakeConn{}, Settings{PollInterval: time.Millisecond})

	cmd := s.Poll()
	if cmd == nil {
		t.Fatal("Expected poll command")
	}
	if !s.IsPolling() {
		t.Error("Expected polling after Poll")
	}
	if _, ok := cmd().(PollMsg); !ok {
		t.Error("Expected PollMsg from poll command")
	}

	s.StopPolling()
	if s.IsPolling() {
		t.Error("Expected polling stopped")
	}
}

func TestSessionRead(t *testing.T) {
	conn := &fakeConn{data: []byte("ok")}
	s := NewSession(conn, Settings{ReadTimeout: 20 * time.Millisecond, MaxRead: 32})

	msg, ok := s.Read()().(ReadResultMsg)
	if !ok {
		t.Fatalf("Expected ReadResultMsg, got %T", msg)
	}
	if msg.Err != nil || !bytes.Equal(msg.Data, []byte("ok")) {
		t.Errorf("ReadResultMsg = %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected read timestamp")
	}
	if conn.readMax != 32 || conn.readTimeout != 20*time.Millisecond {
		t.Errorf("Read called with max=%d timeout=%v", conn.readMax, conn.readTimeout)
	}

	conn.readErr = errors.New("gone")
	msg = s.Read()().(ReadResultMsg)
	if !errors.Is(msg.Err, conn.readErr) {
		t.Errorf("Expected read error, got %v", msg.Err)
	}
}

func TestSessionSend(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession(conn, Settings{})

	first, cmd := s.Send([]byte("AT\n"))
	if first.Direction != components.DirectionTX || first.Status != components.TxPending {
		t.Errorf("Expected pending TX message, got %+v", first)
	}
	if len(conn.written) != 0 {
		t.Error("Expected nothing written before the command runs")
	}

	res := cmd().(WriteResultMsg)
	if res.ID != first.ID || res.Err != nil {
		t.Errorf("WriteResultMsg = %+v, want ID %d", res, first.ID)
	}
	if len(conn.written) != 1 || string(conn.written[0]) != "AT\n" {
		t.Errorf("written = %q", conn.written)
	}

	second, _ := s.Send([]byte("x"))
	if second.ID == first.ID {
		t.Error("Expected distinct message IDs")
	}

	if !s.SetTxStatus(first.ID, components.TxWritten) {
		t.Fatal("Expected SetTxStatus to find the message")
	}
	if got := s.GetRawData()[0].Status; got != components.TxWritten {
		t.Errorf("Status = %v, want TxWritten", got)
	}
	if s.SetTxStatus(99, components.TxFailed) {
		t.Error("Expected SetTxStatus to report unknown ID")
	}
}

func TestSessionNoticeAndClear(t *testing.T) {
	s := NewSession(&fakeConn{}, Settings{})

	n := s.Notice("attached")
	if n.Direction != components.DirectionInfo || n.Note != "attached" {
		t.Errorf("Notice = %+v", n)
	}
	if len(s.GetRawData()) != 1 {
		t.Fatalf("Expected notice in raw data")
	}
	// Notices have no ID and are never matched as TX
	if s.SetTxStatus(0, components.TxWritten) {
		t.Error("Expected notice not to be updated as TX")
	}

	s.ClearData()
	if len(s.GetRawData()) != 0 {
		t.Error("Expected raw data cleared")
	}
}

func TestSessionInputMode(t *testing.T) {
	s := NewSession(&fakeConn{}, Settings{})

	s.SetInputMode(InputModeInsert)
	if !s.IsInInsertMode() || s.GetInputMode().String() != "INSERT" {
		t.Errorf("Expected insert mode, got %v", s.GetInputMode())
	}
	s.SetInputMode(InputModeNormal)
	if s.IsInInsertMode() || s.GetInputMode().String() != "NORMAL" {
		t.Errorf("Expected normal mode, got %v", s.GetInputMode())
	}
}
