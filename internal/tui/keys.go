package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Monitor   key.Binding
	Next      key.Binding
	Prev      key.Binding
	Visible   key.Binding
	Capture   key.Binding
	Clear     key.Binding
	ClearAll  key.Binding
	Remove    key.Binding
	Add       key.Binding
	Rename    key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Reset     key.Binding
	Faster    key.Binding
	Slower    key.Binding
	ExportCSV key.Binding
	ExportPNG key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Monitor, k.Add, k.Next, k.Visible, k.Reset, k.ExportCSV, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Monitor, k.Faster, k.Slower, k.Quit},
		{k.Add, k.Rename, k.Remove, k.Next, k.Prev},
		{k.Visible, k.Capture, k.Clear, k.ClearAll},
		{k.ZoomIn, k.ZoomOut, k.Reset, k.ExportCSV, k.ExportPNG},
	}
}

var keys = keyMap{
	Monitor: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "start/stop"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "down", "j"),
		key.WithHelp("tab", "next channel"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up", "k"),
		key.WithHelp("shift+tab", "prev channel"),
	),
	Visible: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "show/hide"),
	),
	Capture: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "capture on/off"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear channel"),
	),
	ClearAll: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "clear all"),
	),
	Remove: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "remove channel"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add region"),
	),
	Rename: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rename"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "fit"),
	),
	Faster: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "interval -0.5s"),
	),
	Slower: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "interval +0.5s"),
	),
	ExportCSV: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "csv"),
	),
	ExportPNG: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "png"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
