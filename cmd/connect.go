/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	usbserial "github.com/allbin/go-usbserial"
	"github.com/allbin/go-usbserial/internal/tui/components"
	"github.com/allbin/go-usbserial/internal/tui/keys"
	"github.com/allbin/go-usbserial/internal/tui/models"
	"github.com/allbin/go-usbserial/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [device]",
	Short: "Connect to a USB serial device with bidirectional communication",
	Long: `Connect to a USB serial device with an interactive terminal interface.

The device is opened 8N1 at the configured baud rate and polled for incoming
data every --poll-interval. Features include:
- Data streaming with timestamps
- Input field for sending ASCII or hex data
- ASCII and hex display modes
- Attach/detach notices, reconnect with 'r' after the device comes back

Example usage:
  usbserial connect
  usbserial connect 0 --baud 9600
  usbserial connect 2341:0043 --poll-interval 20ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		sel, err := selectorFrom(args)
		if err != nil {
			return err
		}

		h, log, err := newHelper()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		conn, err := openDevice(h, sel)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, h.Close())
		}()

		return runConnectTUI(h, sel, conn)
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().Duration("poll-interval", 50*time.Millisecond, "Delay between reads")
	_ = viper.BindPFlag("poll-interval", connectCmd.Flags().Lookup("poll-interval"))
}

// deviceEventMsg forwards hotplug events into the TUI
type deviceEventMsg usbserial.Event

// reconnectMsg reports the outcome of a reconnect attempt
type reconnectMsg struct {
	conn usbserial.Connection
	err  error
}

// connectModel represents the Bubble Tea model for the connect command
type connectModel struct {
	*models.Session
	helper    *usbserial.Helper
	selector  usbserial.Selector
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConnectKeys
}

func newConnectModel(h *usbserial.Helper, sel usbserial.Selector, conn usbserial.Connection, settings models.Settings) *connectModel {
	m := &connectModel{
		Session:  models.NewSession(h, settings),
		helper:   h,
		selector: sel,
		terminal: components.NewTerminal(0, 0), // Will be properly sized by WindowSizeMsg
		statusBar: components.NewStatusBar(components.ConnectionInfo{
			DeviceName:   conn.Driver.Device.Name,
			DriverName:   conn.Driver.Name,
			VIDPID:       conn.Driver.Device.VIDPID(),
			PortPath:     conn.Port.Path,
			BaudRate:     conn.BaudRate,
			PollInterval: settings.PollInterval,
		}),
		input: components.NewInput(),
		help:  help.New(),
		keys:  keys.NewConnectKeys(),
	}
	m.statusBar.SetConnected()
	return m
}

func runConnectTUI(h *usbserial.Helper, sel usbserial.Selector, conn usbserial.Connection) error {
	m := newConnectModel(h, sel, conn, models.Settings{
		PollInterval: viper.GetDuration("poll-interval"),
		ReadTimeout:  viper.GetDuration("read-timeout"),
		WriteTimeout: viper.GetDuration("write-timeout"),
		MaxRead:      viper.GetInt("max-read"),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hotplug: Watch closes the connection when its device goes away
	go func() {
		_ = h.Watch(ctx)
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-h.Events():
				p.Send(deviceEventMsg(ev))
			}
		}
	}()

	_, err := p.Run()
	return err
}

func (m *connectModel) Init() tea.Cmd {
	return m.Poll()
}

// reconnect reopens the selected device without prompting
func (m *connectModel) reconnect() tea.Cmd {
	h, sel := m.helper, m.selector
	return func() tea.Msg {
		_, driver, err := resolveDriver(h, sel)
		if err != nil {
			return reconnectMsg{err: err}
		}
		if err := h.OpenDriver(driver, viper.GetInt("port"), viper.GetInt("baud")); err != nil {
			return reconnectMsg{err: err}
		}
		conn, _ := h.Connection()
		return reconnectMsg{conn: conn}
	}
}

func (m *connectModel) notice(format string, args ...any) {
	m.terminal.AddMessage(m.Notice(fmt.Sprintf(format, args...)))
}

// encodeInput turns the input line into bytes according to the sending mode
func encodeInput(value string, mode components.SendingMode, ending components.LineEnding) ([]byte, error) {
	if mode == components.SendingModeHex {
		return parseHexInput(value)
	}
	return []byte(value + ending.Suffix()), nil
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input area height (includes border) plus the single line status bar
		verticalMarginHeight := 3 + 1
		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		if !m.IsReady() {
			m.SetReady(true)
			m.terminal.Refresh(m.GetRawData())
		}

	case models.PollMsg:
		if !m.IsConnected() {
			m.StopPolling()
			return m, nil
		}
		return m, m.Read()

	case models.ReadResultMsg:
		if msg.Err != nil {
			m.StopPolling()
			m.SetConnected(false)
			m.SetError(msg.Err)
			m.statusBar.SetDisconnected(msg.Err)
			if errors.Is(msg.Err, usbserial.ErrPortNotOpen) {
				m.notice("connection closed, press 'r' to reconnect")
			} else {
				m.notice("read failed: %v", msg.Err)
			}
			return m, nil
		}
		if len(msg.Data) > 0 {
			rx := components.DataMsg{
				Timestamp: msg.Timestamp,
				Data:      msg.Data,
				Direction: components.DirectionRX,
			}
			m.AddRawData(rx)
			m.terminal.AddMessage(rx)
		}
		return m, m.Poll()

	case models.WriteResultMsg:
		status := components.TxWritten
		if msg.Err != nil {
			status = components.TxFailed
		}
		if m.SetTxStatus(msg.ID, status) {
			m.terminal.Refresh(m.GetRawData())
		}
		if msg.Err != nil {
			m.notice("write failed: %v", msg.Err)
		}

	case deviceEventMsg:
		if msg.Initial {
			break
		}
		switch msg.Type {
		case usbserial.EventDeviceAttached:
			m.notice("attached: %s", msg.Device)
		case usbserial.EventDeviceDetached:
			m.notice("detached: %s", msg.Device)
		}

	case reconnectMsg:
		if msg.err != nil {
			m.notice("reconnect failed: %v", msg.err)
			return m, nil
		}
		m.SetConnected(true)
		m.SetError(nil)
		m.statusBar.SetConnected()
		m.notice("reconnected to %s at %d baud", msg.conn.Port.Path, msg.conn.BaudRate)
		if !m.IsPolling() {
			return m, m.Poll()
		}

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Enter):
				return m, m.sendInput()
			case key.Matches(msg, m.keys.HistoryUp):
				m.input.HistoryUp()
				return m, nil
			case key.Matches(msg, m.keys.HistoryDown):
				m.input.HistoryDown()
				return m, nil
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, nil
			}
		} else {
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit

			case key.Matches(msg, m.keys.InsertMode):
				m.SetInputMode(models.InputModeInsert)
				m.input.Focus()
				return m, nil

			case key.Matches(msg, m.keys.Clear):
				m.ClearData()
				m.terminal.Clear()

			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll

			case key.Matches(msg, m.keys.ToggleHex):
				m.terminal.ToggleHex()
				m.terminal.Refresh(m.GetRawData())

			case key.Matches(msg, m.keys.ToggleASCII):
				m.terminal.ToggleASCII()
				m.terminal.Refresh(m.GetRawData())

			case key.Matches(msg, m.keys.LineEnding):
				m.input.CycleLineEnding()
				m.notice("ASCII lines end with %s", m.input.LineEnding())

			case key.Matches(msg, m.keys.GotoTop):
				m.terminal.GotoTop()

			case key.Matches(msg, m.keys.GotoBottom):
				m.terminal.GotoBottom()

			case key.Matches(msg, m.keys.Reconnect):
				if !m.IsConnected() {
					m.notice("reconnecting to %s...", m.selector)
					return m, m.reconnect()
				}
			}
		}
	}

	// Update components (only update input in insert mode)
	if m.IsInInsertMode() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	if _, ok := msg.(tea.WindowSizeMsg); ok {
		_, cmd := m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// sendInput writes the input line to the device
func (m *connectModel) sendInput() tea.Cmd {
	value := m.input.Value()
	if value == "" {
		return nil
	}
	if !m.IsConnected() {
		m.notice("not connected, press esc then 'r' to reconnect")
		return nil
	}

	data, err := encodeInput(value, m.input.SendingMode(), m.input.LineEnding())
	if err != nil {
		m.notice("invalid hex input: %v", err)
		return nil
	}

	tx, cmd := m.Send(data)
	m.terminal.AddMessage(tx)

	m.input.Commit()
	return cmd
}

func (m *connectModel) View() string {
	content := "Initializing..."
	if m.IsReady() {
		content = m.terminal.View()
	}

	inputMode := m.GetInputMode().String()
	input := m.input.View(m.IsInInsertMode())

	statusBar := m.statusBar.Render(inputMode, m.input.ModeLabel(), time.Now().Format("15:04:05"))

	views := []string{
		styles.ContentBorderStyle.Render(content),
		input,
		statusBar,
	}
	if m.help.ShowAll {
		views = append(views, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, views...)
}
