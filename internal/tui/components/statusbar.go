package components

import (
	"fmt"
	"time"

	"github.com/allbin/go-usbserial/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is what the status bar shows about the open device
type ConnectionInfo struct {
	DeviceName   string
	DriverName   string
	VIDPID       string
	PortPath     string
	BaudRate     int
	PollInterval time.Duration
}

// StatusBar is the bottom line of the connect view, laid out like a vim
// status line: mode, port, state on the left, line settings on the right.
type StatusBar struct {
	info   ConnectionInfo
	status styles.StatusType
	err    error
	width  int
}

func NewStatusBar(info ConnectionInfo) *StatusBar {
	return &StatusBar{
		info:   info,
		status: styles.StatusConnecting,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnected() {
	sb.status = styles.StatusConnected
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.err = err
	if err != nil {
		sb.status = styles.StatusError
	} else {
		sb.status = styles.StatusDisconnected
	}
}

func (sb *StatusBar) Status() styles.StatusType {
	return sb.status
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// Render draws the status line
func (sb *StatusBar) Render(inputMode, sendingMode string, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Mode indicator (like NORMAL in nvim)
	modeStyle := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(styles.Blue).
		Bold(true).
		Padding(0, 1)
	if inputMode == "INSERT" {
		modeStyle = modeStyle.Background(styles.Green)
	}
	mode := modeStyle.Render(inputMode)

	port := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.info.PortPath)

	symbol, indicatorStyle := styles.StatusIndicator(sb.status)
	connectionIndicator := indicatorStyle.Render(symbol)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, port, connectionIndicator}
	if inputMode == "INSERT" {
		left = append(left, lipgloss.NewStyle().
			Foreground(styles.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	if sb.err != nil {
		left = append(left, lipgloss.NewStyle().
			Foreground(styles.Red).
			Padding(0, 1).
			Render(sb.err.Error()))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	details := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Padding(0, 1).
		Render(sb.Details())

	clock := lipgloss.NewStyle().
		Foreground(styles.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}

// Details summarises the line settings, e.g. "⚡ 115200 8N1 · FtdiSerialDriver 0403:6001 · poll 50ms"
func (sb *StatusBar) Details() string {
	s := fmt.Sprintf("⚡ %d 8N1", sb.info.BaudRate)
	if sb.info.DriverName != "" {
		s += fmt.Sprintf(" · %s %s", sb.info.DriverName, sb.info.VIDPID)
	}
	if sb.info.PollInterval > 0 {
		s += fmt.Sprintf(" · poll %v", sb.info.PollInterval)
	}
	return s
}
