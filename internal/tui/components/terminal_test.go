package components

import (
	"strings"
	"testing"
)

func TestTerminalAddMessageAndRefresh(t *testing.T) {
	term := NewTerminal(80, 10)

	raw := []DataMsg{
		{Data: []byte("one"), Direction: DirectionRX},
		{Data: []byte("two"), Direction: DirectionTX, Status: TxPending},
	}
	for _, m := range raw {
		term.AddMessage(m)
	}
	if got := len(term.Lines()); got != 2 {
		t.Fatalf("Expected 2 lines, got %d", got)
	}
	if !strings.Contains(term.Lines()[1], "TX ○") {
		t.Errorf("Expected pending marker, got %q", term.Lines()[1])
	}

	raw[1].Status = TxWritten
	term.Refresh(raw)
	if !strings.Contains(term.Lines()[1], "TX ✓") {
		t.Errorf("Expected refreshed status, got %q", term.Lines()[1])
	}

	term.ToggleASCII()
	term.Refresh(raw)
	if strings.Contains(term.Lines()[0], "ASCII:") {
		t.Errorf("Expected ASCII column hidden, got %q", term.Lines()[0])
	}

	term.Clear()
	if len(term.Lines()) != 0 {
		t.Errorf("Expected empty terminal after Clear, got %d lines", len(term.Lines()))
	}
}

func TestTerminalScrollbackLimit(t *testing.T) {
	term := NewTerminal(80, 10)
	for i := 0; i < maxLines+10; i++ {
		term.AddMessage(DataMsg{Data: []byte{byte(i)}, Direction: DirectionRX})
	}
	if got := len(term.Lines()); got != maxLines {
		t.Errorf("Expected scrollback capped at %d, got %d", maxLines, got)
	}
}

func TestTerminalFollow(t *testing.T) {
	term := NewTerminal(80, 2)
	for i := 0; i < 5; i++ {
		term.AddMessage(DataMsg{Data: []byte{'a'}, Direction: DirectionRX})
	}
	if !term.Following() {
		t.Fatal("Expected terminal to follow new lines")
	}

	term.GotoTop()
	term.AddMessage(DataMsg{Data: []byte{'b'}, Direction: DirectionRX})
	if term.Following() {
		t.Error("Expected scrolled-up terminal to stay put")
	}

	term.GotoBottom()
	if !term.Following() {
		t.Error("Expected terminal to follow again at the bottom")
	}
}
