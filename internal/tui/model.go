// Package tui is the terminal front end: a bubbletea view of the step grid
// with transport, persistence and export controls.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/export"
	"github.com/icco/melodygrid/internal/grid"
	"github.com/icco/melodygrid/internal/session"
)

// View modes
type viewMode int

const (
	gridMode viewMode = iota
	portMode
	browserMode
)

const (
	tempoStep = 5
	// stepBuffer holds steps the update loop has not read yet.
	stepBuffer = 16
)

// stepMsg carries the transport cursor from the sequencer goroutine.
type stepMsg int

// exportDoneMsg reports a finished export.
type exportDoneMsg struct {
	path string
	err  error
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAFF")).
			Bold(true)

	midiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

// Options configure the front end.
type Options struct {
	// ExportDir receives exported files and is where the import browser
	// starts.
	ExportDir string
	// MIDIOut is the output port opened at startup, if any.
	MIDIOut string
	Ports   PortProvider
}

// Model is the bubbletea model of the grid editor.
type Model struct {
	sess      *session.Session
	steps     chan int
	keys      keyMap
	help      help.Model
	mode      viewMode
	exportDir string

	cursorRow int
	cursorCol int
	column    int

	message string
	isError bool

	ports   portPicker
	browser fileBrowser
	meter   levelMeter

	width  int
	height int
}

// New creates the editor for a session.
func New(sess *session.Session, opts Options) Model {
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Ports == nil {
		opts.Ports = systemPorts{}
	}
	m := Model{
		sess:      sess,
		steps:     make(chan int, stepBuffer),
		keys:      defaultKeys(),
		help:      help.New(),
		exportDir: opts.ExportDir,
		column:    -1,
		ports:     portPicker{provider: opts.Ports, selected: -1},
		browser:   fileBrowser{currentDir: opts.ExportDir},
		meter:     newLevelMeter(),
	}
	steps := m.steps
	sess.OnStep(func(col int) {
		// Never block the clock; the view catches up on the next step.
		select {
		case steps <- col:
		default:
		}
	})
	if opts.MIDIOut != "" {
		if err := m.ports.connect(sess, opts.MIDIOut); err != nil {
			m.setError(err)
		} else {
			m.setInfo(fmt.Sprintf("Connected to: %s", opts.MIDIOut))
		}
	}
	return m
}

// Run starts the program and blocks until the user quits.
func Run(sess *session.Session, opts Options) error {
	m := New(sess, opts)
	defer sess.OnStep(nil)
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.ports.close(sess)
	}
	sess.Close()
	return err
}

func (m Model) Init() tea.Cmd {
	return waitForStep(m.steps)
}

// waitForStep delivers the next transport step as a stepMsg.
func waitForStep(steps <-chan int) tea.Cmd {
	return func() tea.Msg {
		return stepMsg(<-steps)
	}
}

func (m *Model) setError(err error) {
	m.message = apperr.Reason(err)
	m.isError = true
	logrus.WithField("component", "tui").WithError(err).Warn(m.message)
}

func (m *Model) setInfo(msg string) {
	m.message = msg
	m.isError = false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case stepMsg:
		next := waitForStep(m.steps)
		// Steps queued before a stop are stale.
		if !m.sess.Playing() {
			return m, next
		}
		m.column = int(msg)
		g := m.sess.Grid()
		return m, tea.Batch(next, m.meter.hit(float64(len(g.Column(m.column)))/float64(g.Rows())))

	case frameMsg:
		if m.meter.step() {
			return m, frame()
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setInfo(fmt.Sprintf("Exported %s", msg.path))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case portMode:
			return m.updatePorts(msg)
		case browserMode:
			return m.updateBrowser(msg)
		default:
			return m.updateGrid(msg)
		}
	}

	return m, nil
}

func (m Model) View() string {
	switch m.mode {
	case portMode:
		return m.viewPorts()
	case browserMode:
		return m.viewBrowser()
	default:
		return m.viewGrid()
	}
}

// exportCmd runs an export off the UI goroutine and writes the result into
// the export directory.
func (m Model) exportCmd(name string, encode func() ([]byte, error)) tea.Cmd {
	dir := m.exportDir
	return func() tea.Msg {
		data, err := encode()
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := export.WriteFile(dir, name, data)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m Model) exportMIDI() tea.Cmd {
	return m.exportCmd(export.MIDIFileName, m.sess.ExportMIDI)
}

func (m Model) exportWAV() tea.Cmd {
	sess := m.sess
	return m.exportCmd(export.WAVFileName, func() ([]byte, error) {
		return sess.ExportWAV(context.Background())
	})
}

func (m *Model) importFile(path string) {
	f, err := os.Open(path) //nolint:gosec // path was picked in the file browser
	if err != nil {
		m.setError(apperr.Wrap(err, apperr.InvalidSavedData, "The MIDI file could not be opened."))
		return
	}
	defer func() { _ = f.Close() }()

	skipped, err := m.sess.ImportMIDI(f)
	if err != nil {
		m.setError(err)
		return
	}
	msg := fmt.Sprintf("Imported %s", filepath.Base(path))
	if skipped > 0 {
		msg += fmt.Sprintf(" (%d notes outside the grid skipped)", skipped)
	}
	m.setInfo(msg)
}

func (m *Model) moveCursor(dRow, dCol int) {
	g := m.sess.Grid()
	m.cursorRow = min(max(m.cursorRow+dRow, 0), g.Rows()-1)
	m.cursorCol = min(max(m.cursorCol+dCol, 0), g.Cols()-1)
}

func (m *Model) changeTempo(delta int) {
	bpm := grid.ClampTempo(m.sess.Tempo() + delta)
	if err := m.sess.SetTempo(bpm); err != nil {
		m.setError(err)
		return
	}
	m.setInfo(fmt.Sprintf("Tempo: %d BPM", bpm))
}
