package tui

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	meterFPS     = 60
	meterHistory = 48
	meterSettle  = 0.001
)

var meterBlocks = []rune("▁▂▃▄▅▆▇█")

// frameMsg advances the level meter animation.
type frameMsg time.Time

// levelMeter animates the share of rows sounding on each step with a
// spring, and keeps a short scrolling history of it.
type levelMeter struct {
	spring    harmonica.Spring
	level     float64
	velocity  float64
	target    float64
	history   []float64
	animating bool
}

func newLevelMeter() levelMeter {
	return levelMeter{
		// slower decay, less bouncy
		spring:  harmonica.NewSpring(harmonica.FPS(meterFPS), 6.0, 0.8),
		history: make([]float64, meterHistory),
	}
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/meterFPS, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// hit kicks the meter up to level in [0, 1], from where it falls back to
// zero. It starts the animation if it is not running yet.
func (lm *levelMeter) hit(level float64) tea.Cmd {
	level = math.Min(math.Max(level, 0), 1)
	lm.level = math.Max(lm.level, level)
	lm.target = 0
	if lm.animating {
		return nil
	}
	lm.animating = true
	return frame()
}

// step advances one frame and reports whether another frame is needed.
func (lm *levelMeter) step() bool {
	lm.level, lm.velocity = lm.spring.Update(lm.level, lm.velocity, lm.target)
	if lm.level < 0 {
		lm.level = 0
	}
	copy(lm.history, lm.history[1:])
	lm.history[len(lm.history)-1] = lm.level

	if math.Abs(lm.level-lm.target) < meterSettle && math.Abs(lm.velocity) < meterSettle {
		lm.level = lm.target
		lm.velocity = 0
		lm.animating = false
	}
	return lm.animating
}

func (lm levelMeter) view() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#00E5FF"))

	var b strings.Builder
	b.WriteString("Level ")
	for _, v := range lm.history {
		idx := int(math.Round(v * float64(len(meterBlocks)-1)))
		idx = min(max(idx, 0), len(meterBlocks)-1)
		if v < meterSettle {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(meterBlocks[idx])
	}
	return style.Render(b.String())
}
