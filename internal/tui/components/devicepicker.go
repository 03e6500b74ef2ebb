package components

import (
	"fmt"
	"strings"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/allbin/go-usbserial/internal/tui/keys"
	"github.com/allbin/go-usbserial/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyIndex  = "index"
	columnKeyDevice = "device"
	columnKeyDriver = "driver"
	columnKeyID     = "vidpid"
	columnKeySerial = "serial"
	columnKeyPort   = "port"

	// rowKeyChoice holds the position in DevicePicker.choices
	rowKeyChoice = "choice"
)

// DeviceChoice is one selectable port
type DeviceChoice struct {
	DeviceIndex int
	PortIndex   int
	Driver      usbserial.Driver
}

// Selector returns the identity selector of the chosen device
func (c DeviceChoice) Selector() usbserial.Selector {
	return usbserial.SelectorFor(c.Driver)
}

// DevicePicker lists every port of every device and lets the user pick one
type DevicePicker struct {
	table   table.Model
	choices []DeviceChoice
	chosen  *DeviceChoice
	keys    keys.PickerKeys
	help    help.Model
}

func NewDevicePicker(drivers []usbserial.Driver) *DevicePicker {
	columns := []table.Column{
		table.NewColumn(columnKeyIndex, "#", 3),
		table.NewColumn(columnKeyDevice, "Device", 22),
		table.NewColumn(columnKeyDriver, "Driver", 22),
		table.NewColumn(columnKeyID, "VID:PID", 11),
		table.NewColumn(columnKeySerial, "Serial", 18),
		table.NewColumn(columnKeyPort, "Port", 18),
	}

	var choices []DeviceChoice
	var rows []table.Row
	for i, d := range drivers {
		for _, p := range d.Ports {
			rows = append(rows, table.NewRow(table.RowData{
				columnKeyIndex:  fmt.Sprintf("%d", i),
				columnKeyDevice: d.Device.Name,
				columnKeyDriver: d.Name,
				columnKeyID:     d.Device.VIDPID(),
				columnKeySerial: d.Device.SerialNumber,
				columnKeyPort:   fmt.Sprintf("%d: %s", p.Index, strings.TrimPrefix(p.Path, "/dev/")),
				rowKeyChoice:    len(choices),
			}))
			choices = append(choices, DeviceChoice{DeviceIndex: i, PortIndex: p.Index, Driver: d})
		}
	}

	t := table.New(columns).
		WithRows(rows).
		Focused(true).
		BorderRounded().
		WithBaseStyle(styles.TableBaseStyle).
		HighlightStyle(styles.TableHighlightStyle).
		WithPageSize(10)

	return &DevicePicker{
		table:   t,
		choices: choices,
		keys:    keys.NewPickerKeys(),
		help:    help.New(),
	}
}

// Chosen returns the selection once the picker has quit
func (p *DevicePicker) Chosen() (DeviceChoice, bool) {
	if p.chosen == nil {
		return DeviceChoice{}, false
	}
	return *p.chosen, true
}

func (p *DevicePicker) Init() tea.Cmd {
	return nil
}

func (p *DevicePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, p.keys.Quit):
			return p, tea.Quit
		case key.Matches(msg, p.keys.Select):
			if i, ok := p.table.HighlightedRow().Data[rowKeyChoice].(int); ok && i < len(p.choices) {
				p.chosen = &p.choices[i]
			}
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return p, cmd
}

func (p *DevicePicker) View() string {
	if len(p.choices) == 0 {
		return styles.HintStyle.Render("No USB serial devices found") + "\n"
	}

	title := styles.TitleStyle.Render("Select a USB serial port")
	return title + "\n\n" + p.table.View() + "\n" + p.help.View(p.keys) + "\n"
}
