package components

import (
	"github.com/allbin/go-usbserial/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxHistory = 100

	asciiPlaceholder = "Type message and press Enter to send..."
	hexPlaceholder   = "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)..."
)

type SendingMode int

const (
	SendingModeASCII SendingMode = iota
	SendingModeHex
)

func (s SendingMode) String() string {
	if s == SendingModeHex {
		return "HEX"
	}
	return "ASCII"
}

// LineEnding is appended to lines sent in ASCII mode
type LineEnding int

const (
	LineEndingLF LineEnding = iota
	LineEndingCRLF
	LineEndingCR
	LineEndingNone
)

func (l LineEnding) String() string {
	switch l {
	case LineEndingCRLF:
		return "CRLF"
	case LineEndingCR:
		return "CR"
	case LineEndingNone:
		return "none"
	default:
		return "LF"
	}
}

// Suffix returns the bytes of the line ending
func (l LineEnding) Suffix() string {
	switch l {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	case LineEndingNone:
		return ""
	default:
		return "\n"
	}
}

// Input is the line editor of the connect view
type Input struct {
	textInput   textinput.Model
	sendingMode SendingMode
	lineEnding  LineEnding
	history     *history
	width       int
}

func NewInput() *Input {
	ti := textinput.New()
	ti.Placeholder = asciiPlaceholder
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.Focus()

	return &Input{
		textInput: ti,
		history:   newHistory(maxHistory),
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	// border, padding, prompt symbol and a space
	i.textInput.Width = max(width-6, 20)
}

func (i *Input) Focus() {
	i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

func (i *Input) SendingMode() SendingMode {
	return i.sendingMode
}

func (i *Input) ToggleSendingMode() {
	if i.sendingMode == SendingModeASCII {
		i.sendingMode = SendingModeHex
		i.textInput.Placeholder = hexPlaceholder
		return
	}
	i.sendingMode = SendingModeASCII
	i.textInput.Placeholder = asciiPlaceholder
}

func (i *Input) LineEnding() LineEnding {
	return i.lineEnding
}

// CycleLineEnding steps LF -> CRLF -> CR -> none -> LF
func (i *Input) CycleLineEnding() {
	i.lineEnding = (i.lineEnding + 1) % (LineEndingNone + 1)
}

// ModeLabel describes what Enter will send, e.g. "ASCII+CRLF" or "HEX"
func (i *Input) ModeLabel() string {
	if i.sendingMode == SendingModeHex {
		return i.sendingMode.String()
	}
	return i.sendingMode.String() + "+" + i.lineEnding.String()
}

// Commit records the current line in the history and clears the editor
func (i *Input) Commit() {
	i.history.add(i.textInput.Value())
	i.textInput.SetValue("")
}

func (i *Input) HistoryUp() {
	if line, ok := i.history.prev(i.textInput.Value()); ok {
		i.textInput.SetValue(line)
	}
}

func (i *Input) HistoryDown() {
	if line, ok := i.history.next(); ok {
		i.textInput.SetValue(line)
	}
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

// View renders the bordered input box. Outside insert mode it shows a hint
// instead of the editor.
func (i *Input) View(insert bool) string {
	symbol, color := ">", styles.Green
	if i.sendingMode == SendingModeHex {
		symbol, color = "#", styles.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(color).Bold(true).Render(symbol)

	body := styles.HintStyle.Render("Press 'i' to enter insert mode")
	if insert {
		body = i.textInput.View()
	}

	box := styles.InputStyle.
		Width(max(i.width-4, 10)).
		AlignHorizontal(lipgloss.Left)
	if insert {
		box = box.BorderForeground(styles.Green)
	}
	return box.Render(lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", body))
}
