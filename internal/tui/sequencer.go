package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Up):
		m.moveCursor(-1, 0)
	case key.Matches(msg, k.Down):
		m.moveCursor(1, 0)
	case key.Matches(msg, k.Left):
		m.moveCursor(0, -1)
	case key.Matches(msg, k.Right):
		m.moveCursor(0, 1)
	case key.Matches(msg, k.Toggle):
		if _, err := m.sess.Toggle(m.cursorRow, m.cursorCol); err != nil {
			m.setError(err)
		}
	case key.Matches(msg, k.Play):
		if err := m.sess.TogglePlay(); err != nil {
			m.setError(err)
		} else if m.sess.Playing() {
			m.setInfo("Playing")
		} else {
			m.column = -1
			m.setInfo("Stopped")
		}
	case key.Matches(msg, k.TempoUp):
		m.changeTempo(tempoStep)
	case key.Matches(msg, k.TempoDown):
		m.changeTempo(-tempoStep)
	case key.Matches(msg, k.Clear):
		if err := m.sess.Clear(); err != nil {
			m.setError(err)
		} else {
			m.setInfo("Grid cleared")
		}
	case key.Matches(msg, k.Save):
		if err := m.sess.Save(); err != nil {
			m.setError(err)
		} else {
			m.setInfo("Saved!")
		}
	case key.Matches(msg, k.Load):
		if err := m.sess.Load(); err != nil {
			m.setError(err)
		} else {
			m.setInfo("Melody loaded")
		}
	case key.Matches(msg, k.ExportMID):
		m.setInfo("Exporting MIDI...")
		return m, m.exportMIDI()
	case key.Matches(msg, k.ExportWAV):
		m.setInfo("Rendering WAV...")
		return m, m.exportWAV()
	case key.Matches(msg, k.Import):
		if m.sess.Playing() {
			m.setInfo("Stop playback to import")
			return m, nil
		}
		m.browser.loadFiles()
		m.mode = browserMode
	case key.Matches(msg, k.MIDIOut):
		m.ports.refresh()
		m.mode = portMode
		if len(m.ports.names) == 0 {
			m.setInfo("No MIDI outputs found. Press 'r' to refresh.")
		} else {
			m.setInfo(fmt.Sprintf("Found %d MIDI output(s)", len(m.ports.names)))
		}
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) viewGrid() string {
	g := m.sess.Grid()
	tones := m.sess.Tones()
	playing := m.sess.Playing()

	var b strings.Builder

	b.WriteString(titleStyle.Render("Melody Grid") + "\n\n")
	tempo := fmt.Sprintf("BPM: %d", m.sess.Tempo())
	if playing {
		tempo += " (locked while playing)"
	} else {
		tempo += " (use +/- to adjust)"
	}
	b.WriteString(tempo + "\n")

	if name := m.ports.connected(); name != "" {
		b.WriteString(fmt.Sprintf("MIDI Out: %s ✓\n\n", name))
	} else {
		b.WriteString("MIDI Out: Not connected (press 'o' to select)\n\n")
	}

	b.WriteString(renderClockBar(g.Cols(), playing, m.column) + "\n")
	b.WriteString(m.meter.view() + "\n\n")

	// Header row: 6 chars for the note label, 3 per step.
	b.WriteString("Note  ")
	for c := 0; c < g.Cols(); c++ {
		b.WriteString(fmt.Sprintf(" %X ", c%16))
	}
	b.WriteString("\n")

	for r := 0; r < g.Rows(); r++ {
		label := ""
		if r < len(tones) {
			label = tones[r].Name
		}
		if r == m.cursorRow {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("%-5s ", label)))
		} else {
			b.WriteString(fmt.Sprintf("%-5s ", label))
		}

		for c := 0; c < g.Cols(); c++ {
			active := g.Active(r, c)
			cell := " · "
			if active {
				cell = " ● "
			}

			cellStyle := lipgloss.NewStyle().Width(3)
			if r == m.cursorRow && c == m.cursorCol {
				cellStyle = cellStyle.Background(lipgloss.Color("#7D56F4"))
			}
			switch {
			case playing && c == m.column && active:
				cellStyle = cellStyle.Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
			case playing && c == m.column:
				cellStyle = cellStyle.Foreground(lipgloss.Color("#00FF00")).Bold(true)
			case active:
				cellStyle = cellStyle.Foreground(lipgloss.Color("#FFD700"))
			default:
				cellStyle = cellStyle.Foreground(lipgloss.Color("#666666"))
			}
			b.WriteString(cellStyle.Render(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.message != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.message) + "\n")
		} else {
			b.WriteString(infoStyle.Render(m.message) + "\n")
		}
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func renderClockBar(cols int, isPlaying bool, currentStep int) string {
	// Colors for the clock bar - gradient from cyan to magenta
	colors := []string{
		"#00FFFF", "#00E5FF", "#00CCFF", "#00B2FF",
		"#0099FF", "#0080FF", "#0066FF", "#1A4DFF",
		"#3333FF", "#4D1AFF", "#6600FF", "#8000FF",
		"#9900FF", "#B300FF", "#CC00FF", "#FF00FF",
	}

	bar := strings.Builder{}
	// 6 chars to align with the "Note  " label column
	bar.WriteString("Clock ")

	for i := 0; i < cols; i++ {
		var cell string
		var cellStyle lipgloss.Style
		color := lipgloss.Color(colors[i*len(colors)/cols])

		switch {
		case isPlaying && i == currentStep:
			cell = " ▶ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(color).
				Bold(true)
		case isPlaying && i < currentStep:
			cell = " █ "
			cellStyle = lipgloss.NewStyle().Foreground(color)
		default:
			cell = " · "
			cellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
		}

		bar.WriteString(cellStyle.Render(cell))
	}

	status := " Stopped"
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	if isPlaying {
		status = " Playing"
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	}
	bar.WriteString(statusStyle.Render(status))

	return bar.String()
}
