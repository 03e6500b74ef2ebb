package models

import (
	"sync"
	"time"

	"github.com/allbin/go-usbserial/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// Conn is the connection a Session polls and writes to
type Conn interface {
	Read(maxLength int, timeout time.Duration) ([]byte, error)
	Write(data []byte, timeout time.Duration) error
}

// Settings are the polling and I/O limits of a Session
type Settings struct {
	PollInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRead      int
}

// PollMsg fires when it is time to read again
type PollMsg time.Time

// ReadResultMsg carries the outcome of one read
type ReadResultMsg struct {
	Timestamp time.Time
	Data      []byte
	Err       error
}

// WriteResultMsg carries the outcome of the write with the given message ID
type WriteResultMsg struct {
	ID  int
	Err error
}

// Session holds the state shared by the connect view: the connection, the
// scrollback and the input mode.
type Session struct {
	conn     Conn
	settings Settings

	connected bool
	polling   bool
	err       error
	ready     bool

	rawData []components.DataMsg
	nextID  int

	inputMode InputMode
	mu        sync.RWMutex
}

func NewSession(conn Conn, settings Settings) *Session {
	if settings.PollInterval <= 0 {
		settings.PollInterval = 50 * time.Millisecond
	}
	return &Session{
		conn:      conn,
		settings:  settings,
		connected: true,
		rawData:   make([]components.DataMsg, 0),
		inputMode: InputModeNormal,
	}
}

func (s *Session) Settings() Settings {
	return s.settings
}

// Poll schedules the next read after the poll interval
func (s *Session) Poll() tea.Cmd {
	s.polling = true
	return tea.Tick(s.settings.PollInterval, func(t time.Time) tea.Msg {
		return PollMsg(t)
	})
}

// Read performs one blocking read off the UI goroutine
func (s *Session) Read() tea.Cmd {
	conn, settings := s.conn, s.settings
	return func() tea.Msg {
		data, err := conn.Read(settings.MaxRead, settings.ReadTimeout)
		return ReadResultMsg{Timestamp: time.Now(), Data: data, Err: err}
	}
}

// Send records data as a pending TX line and returns the command writing it
func (s *Session) Send(data []byte) (components.DataMsg, tea.Cmd) {
	s.nextID++
	msg := components.DataMsg{
		ID:        s.nextID,
		Timestamp: time.Now(),
		Data:      data,
		Direction: components.DirectionTX,
		Status:    components.TxPending,
	}
	s.AddRawData(msg)

	conn, timeout, id := s.conn, s.settings.WriteTimeout, s.nextID
	return msg, func() tea.Msg {
		return WriteResultMsg{ID: id, Err: conn.Write(data, timeout)}
	}
}

// SetTxStatus updates the status of a sent message; false if it is unknown
func (s *Session) SetTxStatus(id int, status components.TxStatus) bool {
	for i := len(s.rawData) - 1; i >= 0; i-- {
		if s.rawData[i].ID == id && s.rawData[i].Direction == components.DirectionTX {
			s.rawData[i].Status = status
			return true
		}
	}
	return false
}

// Notice records an informational line
func (s *Session) Notice(text string) components.DataMsg {
	msg := components.DataMsg{
		Timestamp: time.Now(),
		Direction: components.DirectionInfo,
		Note:      text,
	}
	s.AddRawData(msg)
	return msg
}

func (s *Session) IsPolling() bool {
	return s.polling
}

func (s *Session) StopPolling() {
	s.polling = false
}

func (s *Session) IsConnected() bool {
	return s.connected
}

func (s *Session) SetConnected(connected bool) {
	s.connected = connected
}

func (s *Session) GetError() error {
	return s.err
}

func (s *Session) SetError(err error) {
	s.err = err
}

func (s *Session) IsReady() bool {
	return s.ready
}

func (s *Session) SetReady(ready bool) {
	s.ready = ready
}

func (s *Session) GetRawData() []components.DataMsg {
	return s.rawData
}

func (s *Session) AddRawData(msg components.DataMsg) {
	s.rawData = append(s.rawData, msg)
}

func (s *Session) ClearData() {
	s.rawData = make([]components.DataMsg, 0)
}

func (s *Session) GetInputMode() InputMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputMode
}

func (s *Session) SetInputMode(mode InputMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputMode = mode
}

func (s *Session) IsInInsertMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputMode == InputModeInsert
}
