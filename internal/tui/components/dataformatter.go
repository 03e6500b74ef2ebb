package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-usbserial/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// Direction tells received data, sent data and local notices apart
type Direction int

const (
	DirectionRX Direction = iota
	DirectionTX
	DirectionInfo
)

// TxStatus tracks a write through its lifetime
type TxStatus int

const (
	TxPending TxStatus = iota
	TxWritten
	TxFailed
)

// DataMsg is one line in the terminal: a chunk read or written, or a notice
type DataMsg struct {
	ID        int
	Timestamp time.Time
	Data      []byte
	Direction Direction
	Status    TxStatus // TX only
	Note      string   // Info only
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) FormatMessage(msg DataMsg) string {
	timestampStyled := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))

	if msg.Direction == DirectionInfo {
		note := lipgloss.NewStyle().
			Foreground(styles.Yellow).
			Render("• " + msg.Note)
		return fmt.Sprintf("%s %s", timestampStyled, note)
	}

	var indicator string
	if msg.Direction == DirectionTX {
		var txColor lipgloss.Color
		var statusText string

		switch msg.Status {
		case TxPending:
			txColor = styles.Yellow
			statusText = "TX ○"
		case TxWritten:
			txColor = styles.Green
			statusText = "TX ✓"
		case TxFailed:
			txColor = styles.Red
			statusText = "TX ✗"
		default:
			txColor = styles.Peach
			statusText = "TX"
		}

		indicator = lipgloss.NewStyle().
			Foreground(txColor).
			Bold(true).
			Render("↗ " + statusText)
	} else {
		indicator = lipgloss.NewStyle().
			Foreground(styles.Sky).
			Bold(true).
			Render("↙ RX")
	}

	return fmt.Sprintf("%s %s: %s", timestampStyled, indicator, strings.Join(df.parts(msg.Data), "  "))
}

func (df *DataFormatter) parts(data []byte) []string {
	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", data))
	}

	if df.mode.ShowASCII {
		var ascii strings.Builder
		for _, b := range data {
			if b >= 32 && b <= 126 {
				ascii.WriteByte(b)
			} else {
				// Keeps terminal control sequences out of the view
				ascii.WriteByte('.')
			}
		}
		parts = append(parts, "ASCII: "+ascii.String())
	}

	// If both are disabled, show raw bytes count
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}
	return parts
}

func (df *DataFormatter) FormatMessages(messages []DataMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}
