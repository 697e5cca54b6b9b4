package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/icco/melodygrid/internal/midiout"
	"github.com/icco/melodygrid/internal/sequencer"
	"github.com/icco/melodygrid/internal/session"
)

// OutputPort is an open MIDI output the sequencer mirrors notes to.
type OutputPort interface {
	sequencer.NoteOutput
	Name() string
	Close() error
}

// PortProvider lists and opens MIDI outputs.
type PortProvider interface {
	Names() []string
	Open(name string) (OutputPort, error)
}

type systemPorts struct{}

func (systemPorts) Names() []string { return midiout.PortNames() }

func (systemPorts) Open(name string) (OutputPort, error) {
	return midiout.Open(name, 0)
}

// portPicker manages the MIDI output selection
type portPicker struct {
	provider PortProvider
	names    []string
	selected int // highlighted index (-1 = none)
	out      OutputPort
}

func (p *portPicker) refresh() {
	p.names = p.provider.Names()
	if p.selected >= len(p.names) {
		p.selected = -1
	}
}

func (p *portPicker) connected() string {
	if p.out == nil {
		return ""
	}
	return p.out.Name()
}

func (p *portPicker) connect(sess *session.Session, name string) error {
	p.close(sess)
	out, err := p.provider.Open(name)
	if err != nil {
		return err
	}
	p.out = out
	sess.AddOutput(out)
	return nil
}

func (p *portPicker) close(sess *session.Session) {
	if p.out == nil {
		return
	}
	sess.ClearOutputs()
	_ = p.out.Close()
	p.out = nil
}

func (m Model) updatePorts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.ports
	switch {
	case key.Matches(msg, m.keys.Up):
		if p.selected > 0 {
			p.selected--
		} else if p.selected == -1 && len(p.names) > 0 {
			p.selected = 0
		}
	case key.Matches(msg, m.keys.Down):
		if p.selected < len(p.names)-1 {
			p.selected++
		}
	case key.Matches(msg, m.keys.Select):
		if p.selected >= 0 && p.selected < len(p.names) {
			name := p.names[p.selected]
			if err := p.connect(m.sess, name); err != nil {
				m.setError(err)
			} else {
				m.setInfo(fmt.Sprintf("Connected to: %s", name))
			}
		}
		m.mode = gridMode
	case key.Matches(msg, m.keys.Refresh):
		p.refresh()
		m.setInfo(fmt.Sprintf("Found %d MIDI output(s)", len(p.names)))
	case msg.String() == "d":
		p.close(m.sess)
		m.setInfo("MIDI output disconnected")
		m.mode = gridMode
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.MIDIOut):
		m.mode = gridMode
	}
	return m, nil
}

func (m Model) viewPorts() string {
	p := m.ports

	var b strings.Builder

	b.WriteString(titleStyle.Render("Select MIDI Output") + "\n\n")

	if len(p.names) == 0 {
		b.WriteString("No MIDI output ports found.\n\n")
		b.WriteString("Make sure your MIDI interface is connected.\n")
	} else {
		for i, name := range p.names {
			cursor := "  "
			if i == p.selected {
				cursor = "> "
			}

			connected := ""
			if p.connected() == name {
				connected = " (connected)"
			}

			if i == p.selected {
				b.WriteString(selectedStyle.Render(fmt.Sprintf("%s%s%s", cursor, name, connected)) + "\n")
			} else {
				b.WriteString(fmt.Sprintf("%s%s%s\n", cursor, name, connected))
			}
		}
	}

	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(errorStyle.Render(m.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/k: up • ↓/j: down • enter: select • d: disconnect • r: refresh • q/esc: cancel"))

	return b.String()
}
