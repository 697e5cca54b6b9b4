package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/icco/melodygrid/internal/audio"
	"github.com/icco/melodygrid/internal/grid"
	"github.com/icco/melodygrid/internal/midiout"
)

var deviceName string

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Play incoming MIDI notes with the sequencer voice",
	Long: `Create a virtual MIDI input device that other applications can send notes to.

The virtual device shows up as a MIDI output destination in other music software.
Every note received is played through the system audio output with the same
voice the sequencer uses.

Example:
  melodygrid listen --name "Melody Grid"
`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVarP(&deviceName, "name", "n", "Melody Grid", "Name for the virtual MIDI device")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	m := newListenModel(deviceName)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.program = p // Store reference so MIDI callback can send messages

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		<-c
		p.Send(tea.Quit())
	}()

	_, err := p.Run()
	m.cleanup()
	return err
}

const maxMessageHistory = 20

// listenModel represents the TUI state for the virtual MIDI device
type listenModel struct {
	deviceName     string
	synth          *audio.Synth
	input          *midiout.Input
	activeNotes    map[uint8]uint8 // note -> channel
	messageHistory []string
	messageCount   int
	err            error
	program        *tea.Program
}

type initResultMsg struct {
	synth *audio.Synth
	input *midiout.Input
	err   error
}

type midiEventMsg midiout.Event

func newListenModel(name string) *listenModel {
	return &listenModel{
		deviceName:     name,
		activeNotes:    make(map[uint8]uint8),
		messageHistory: make([]string, 0, maxMessageHistory),
	}
}

func (m *listenModel) Init() tea.Cmd {
	return m.initMIDI
}

func (m *listenModel) initMIDI() tea.Msg {
	synth, err := openSynth()
	if err != nil {
		return initResultMsg{err: err}
	}

	input, err := midiout.ListenVirtual(m.deviceName, func(ev midiout.Event) {
		// Play first, the UI update can lag.
		switch ev.Kind {
		case midiout.NoteOn:
			synth.PlayNote(grid.NoteFrequency(ev.Note), synth.CurrentTime())
		case midiout.AllNotesOff:
			synth.AllNotesOff()
		}
		if m.program != nil {
			m.program.Send(midiEventMsg(ev))
		}
	})
	if err != nil {
		return initResultMsg{err: err}
	}
	return initResultMsg{synth: synth, input: input}
}

func (m *listenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case initResultMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.synth = msg.synth
		m.input = msg.input
		return m, nil

	case midiEventMsg:
		m.handleMIDIEvent(midiout.Event(msg))
		m.messageCount++
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *listenModel) handleMIDIEvent(ev midiout.Event) {
	var message string

	switch ev.Kind {
	case midiout.NoteOn:
		m.activeNotes[ev.Note] = ev.Channel
		message = fmt.Sprintf("Note On:  Ch%d %s (vel %d)", ev.Channel+1, grid.NoteName(ev.Note), ev.Velocity)
	case midiout.NoteOff:
		delete(m.activeNotes, ev.Note)
		message = fmt.Sprintf("Note Off: Ch%d %s", ev.Channel+1, grid.NoteName(ev.Note))
	case midiout.AllNotesOff:
		clear(m.activeNotes)
		message = fmt.Sprintf("All Notes Off: Ch%d", ev.Channel+1)
	}

	// Add to history (keep most recent at top)
	m.messageHistory = append([]string{message}, m.messageHistory...)
	if len(m.messageHistory) > maxMessageHistory {
		m.messageHistory = m.messageHistory[:maxMessageHistory]
	}
}

func (m *listenModel) cleanup() {
	if m.input != nil {
		_ = m.input.Close()
		m.input = nil
	}
	if m.synth != nil {
		m.synth.AllNotesOff()
		_ = m.synth.Close()
		m.synth = nil
	}
}

func (m *listenModel) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	noteStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	logStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	logHighlightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))

	b.WriteString(titleStyle.Render("Melody Grid Virtual Input") + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
		b.WriteString(helpStyle.Render("Press q to quit"))
		return b.String()
	}

	b.WriteString(subtitleStyle.Render("Device Name: ") + m.deviceName + "\n")
	if m.input != nil {
		b.WriteString(subtitleStyle.Render("MIDI Port: ") + statusStyle.Render(m.input.Name()) + "\n\n")
		b.WriteString(statusStyle.Render("● Listening for MIDI") + "\n\n")
	} else {
		b.WriteString(subtitleStyle.Render("MIDI Port: ") + "Initializing...\n\n")
	}

	b.WriteString(subtitleStyle.Render("Active Notes:") + "\n")
	if len(m.activeNotes) == 0 {
		b.WriteString("  (no notes playing)\n")
	} else {
		notes := make([]int, 0, len(m.activeNotes))
		for n := range m.activeNotes {
			notes = append(notes, int(n))
		}
		sort.Ints(notes)
		names := make([]string, len(notes))
		for i, n := range notes {
			names[i] = fmt.Sprintf("Ch%d:%s", m.activeNotes[uint8(n)]+1, grid.NoteName(uint8(n))) //nolint:gosec // n came from a uint8
		}
		b.WriteString("  " + noteStyle.Render(strings.Join(names, " ")) + "\n")
	}

	b.WriteString("\n" + subtitleStyle.Render(fmt.Sprintf("Message Log: [%d total]", m.messageCount)) + "\n")
	if len(m.messageHistory) == 0 {
		b.WriteString("  " + logStyle.Render("(waiting for input)") + "\n")
	} else {
		for i, msg := range m.messageHistory[:min(len(m.messageHistory), 10)] {
			if i == 0 {
				b.WriteString("  " + logHighlightStyle.Render("▶ "+msg) + "\n")
			} else {
				b.WriteString("  " + logStyle.Render("  "+msg) + "\n")
			}
		}
	}

	b.WriteString("\n" + renderScale(m.activeNotes) + "\n")
	b.WriteString("\n" + helpStyle.Render("q: quit"))

	return b.String()
}

// renderScale shows the grid's pitches from low to high, lit while sounding.
func renderScale(activeNotes map[uint8]uint8) string {
	on := lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000"))
	off := lipgloss.NewStyle().Background(lipgloss.Color("#333333")).Foreground(lipgloss.Color("#FFFFFF"))

	var b strings.Builder
	for i := len(grid.Pentatonic) - 1; i >= 0; i-- {
		t := grid.Pentatonic[i]
		style := off
		if _, ok := activeNotes[t.Note]; ok {
			style = on
		}
		b.WriteString(style.Render(fmt.Sprintf(" %-3s", t.Name)) + " ")
	}
	return b.String()
}
