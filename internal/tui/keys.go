package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// Key builds a binding whose help label is its first key.
func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Play      key.Binding
	TempoUp   key.Binding
	TempoDown key.Binding
	Clear     key.Binding
	Save      key.Binding
	Load      key.Binding
	ExportMID key.Binding
	ExportWAV key.Binding
	Import    key.Binding
	MIDIOut   key.Binding
	Help      key.Binding
	Quit      key.Binding

	// list navigation in the port and file pickers
	Select  key.Binding
	Back    key.Binding
	Refresh key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:        Key("up", "up", "k"),
		Down:      Key("down", "down", "j"),
		Left:      Key("left", "left", "h"),
		Right:     Key("right", "right", "l"),
		Toggle:    Key("toggle note", " "),
		Play:      Key("play/stop", "p"),
		TempoUp:   Key("tempo +5", "+", "="),
		TempoDown: Key("tempo -5", "-", "_"),
		Clear:     Key("clear grid", "c"),
		Save:      Key("save", "s"),
		Load:      Key("load", "L"),
		ExportMID: Key("export MIDI", "m"),
		ExportWAV: Key("export WAV", "w"),
		Import:    Key("import MIDI", "i"),
		MIDIOut:   Key("MIDI output", "o"),
		Help:      Key("more keys", "?"),
		Quit:      Key("quit", "q", "ctrl+c"),
		Select:    Key("select", "enter"),
		Back:      Key("cancel", "esc", "q"),
		Refresh:   Key("refresh", "r"),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Play, k.TempoUp, k.TempoDown, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Toggle},
		{k.Play, k.TempoUp, k.TempoDown, k.Clear},
		{k.Save, k.Load, k.ExportMID, k.ExportWAV},
		{k.Import, k.MIDIOut, k.Help, k.Quit},
	}
}
