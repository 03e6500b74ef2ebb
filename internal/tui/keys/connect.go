package keys

import "github.com/charmbracelet/bubbles/key"

// ConnectKeys are the bindings of the connect view. Insert mode only
// reacts to Escape, Enter, Tab and the history keys; everything else is text.
type ConnectKeys struct {
	// normal mode
	Quit        key.Binding
	Help        key.Binding
	InsertMode  key.Binding
	Clear       key.Binding
	ToggleHex   key.Binding
	ToggleASCII key.Binding
	LineEnding  key.Binding
	Reconnect   key.Binding
	GotoTop     key.Binding
	GotoBottom  key.Binding

	// insert mode
	Escape         key.Binding
	Enter          key.Binding
	ToggleSendMode key.Binding
	HistoryUp      key.Binding
	HistoryDown    key.Binding
}

func NewConnectKeys() ConnectKeys {
	return ConnectKeys{
		Quit:        key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		InsertMode:  key.NewBinding(key.WithKeys("i", "I"), key.WithHelp("i", "type data")),
		Clear:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear scrollback")),
		ToggleHex:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hex column")),
		ToggleASCII: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ascii column")),
		LineEnding:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "line ending")),
		Reconnect:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reopen device")),
		GotoTop:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "oldest")),
		GotoBottom:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "newest")),

		Escape:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop typing")),
		Enter:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "write to port")),
		ToggleSendMode: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "ascii/hex input")),
		HistoryUp:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous line")),
		HistoryDown:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next line")),
	}
}

func (k ConnectKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.InsertMode, k.Enter, k.Reconnect, k.Help, k.Quit}
}

func (k ConnectKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.Enter, k.ToggleSendMode},
		{k.HistoryUp, k.HistoryDown, k.LineEnding},
		{k.ToggleHex, k.ToggleASCII, k.Clear, k.GotoTop, k.GotoBottom},
		{k.Reconnect, k.Help, k.Quit},
	}
}
