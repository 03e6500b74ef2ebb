package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLines bounds the scrollback
const maxLines = 5000

type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	data      []string
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(true, true), // Default: show both hex and ASCII
		data:      make([]string, 0),
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

// Lines returns the formatted scrollback
func (t *Terminal) Lines() []string {
	return t.data
}

// AddMessage appends one line. The view follows new lines only while it is
// scrolled to the bottom.
func (t *Terminal) AddMessage(msg DataMsg) {
	t.data = append(t.data, t.formatter.FormatMessage(msg))
	if len(t.data) > maxLines {
		t.data = t.data[len(t.data)-maxLines:]
	}
	t.render()
}

// Refresh re-formats the whole display, e.g. after a display mode change
func (t *Terminal) Refresh(rawData []DataMsg) {
	if len(rawData) > maxLines {
		rawData = rawData[len(rawData)-maxLines:]
	}
	t.data = t.formatter.FormatMessages(rawData)
	t.render()
}

func (t *Terminal) render() {
	follow := t.Following()
	t.viewport.SetContent(strings.Join(t.data, "\n"))
	if follow {
		t.viewport.GotoBottom()
	}
}

// Following reports whether new lines scroll into view. An unsized
// viewport always follows.
func (t *Terminal) Following() bool {
	return t.viewport.Height <= 0 || t.viewport.AtBottom()
}

func (t *Terminal) GotoTop() {
	t.viewport.GotoTop()
}

func (t *Terminal) GotoBottom() {
	t.viewport.GotoBottom()
}

func (t *Terminal) Clear() {
	t.data = make([]string, 0)
	t.viewport.SetContent("")
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
}

func (t *Terminal) GetDisplayMode() DisplayMode {
	return t.formatter.GetDisplayMode()
}

func (t *Terminal) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Only pass certain message types to viewport to prevent it from consuming our key bindings
	switch msg.(type) {
	case tea.WindowSizeMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t.viewport, cmd
	default:
		return t.viewport, nil
	}
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
