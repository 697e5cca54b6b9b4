package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// fileBrowser picks a MIDI file to import
type fileBrowser struct {
	currentDir  string
	files       []fileInfo
	cursor      int
	viewportTop int
	message     string
}

type fileInfo struct {
	name  string
	path  string
	isDir bool
}

func (fb *fileBrowser) loadFiles() {
	fb.files = []fileInfo{}
	fb.message = ""

	// Add parent directory entry
	if parent := filepath.Dir(fb.currentDir); parent != fb.currentDir {
		fb.files = append(fb.files, fileInfo{
			name:  "..",
			path:  parent,
			isDir: true,
		})
	}

	entries, err := os.ReadDir(fb.currentDir)
	if err != nil {
		fb.message = fmt.Sprintf("Error reading directory: %v", err)
		return
	}

	for _, entry := range entries {
		// Skip hidden files
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		// Include directories and MIDI files
		lower := strings.ToLower(entry.Name())
		if entry.IsDir() || strings.HasSuffix(lower, ".mid") || strings.HasSuffix(lower, ".midi") {
			fb.files = append(fb.files, fileInfo{
				name:  entry.Name(),
				path:  filepath.Join(fb.currentDir, entry.Name()),
				isDir: entry.IsDir(),
			})
		}
	}

	// Reset cursor if out of bounds
	if fb.cursor >= len(fb.files) {
		fb.cursor = max(len(fb.files)-1, 0)
	}
	fb.viewportTop = 0
}

// visibleLines is the number of file rows that fit the terminal.
func visibleLines(height int) int {
	return max(height-9, 5)
}

func (fb *fileBrowser) scroll(height int) {
	lines := visibleLines(height)
	if fb.cursor < fb.viewportTop {
		fb.viewportTop = fb.cursor
	}
	if fb.cursor >= fb.viewportTop+lines {
		fb.viewportTop = fb.cursor - lines + 1
	}
}

func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fb := &m.browser

	switch {
	case key.Matches(msg, m.keys.Up):
		if fb.cursor > 0 {
			fb.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if fb.cursor < len(fb.files)-1 {
			fb.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if len(fb.files) == 0 {
			return m, nil
		}
		selected := fb.files[fb.cursor]
		if selected.isDir {
			fb.currentDir = selected.path
			fb.cursor = 0
			fb.loadFiles()
			return m, nil
		}
		m.importFile(selected.path)
		m.mode = gridMode
	case key.Matches(msg, m.keys.Back):
		m.mode = gridMode
	}
	fb.scroll(m.height)

	return m, nil
}

func (m Model) viewBrowser() string {
	fb := m.browser

	var b strings.Builder
	b.WriteString(titleStyle.Render("Import MIDI") + "\n\n")
	b.WriteString(fmt.Sprintf("Current Directory: %s\n\n", fb.currentDir))

	if len(fb.files) == 0 {
		b.WriteString("No MIDI files or directories found.\n")
	} else {
		end := min(fb.viewportTop+visibleLines(m.height), len(fb.files))
		for i := fb.viewportTop; i < end; i++ {
			file := fb.files[i]
			cursor := " "
			if i == fb.cursor {
				cursor = ">"
			}

			name := file.name
			if file.isDir {
				name = dirStyle.Render(name + "/")
			} else {
				name = midiStyle.Render(name)
			}

			if i == fb.cursor {
				b.WriteString(selectedStyle.Render(fmt.Sprintf("%s %s", cursor, name)) + "\n")
			} else {
				b.WriteString(fmt.Sprintf("%s %s\n", cursor, name))
			}
		}
	}

	b.WriteString("\n")
	if fb.message != "" {
		b.WriteString(errorStyle.Render(fb.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/k: up • ↓/j: down • enter: open • q/esc: cancel"))

	return b.String()
}
