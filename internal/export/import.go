package export

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/grid"
)

// Imported is a grid recovered from a MIDI file.
type Imported struct {
	Cells [][]bool
	Tempo int
	// Skipped counts Note-Ons outside the tone map or past the last column.
	Skipped int
}

// ImportMIDI reads a Standard MIDI File and maps its notes back onto a grid
// with len(tones) rows and cols columns. A Note-On lands on the row whose
// tone has the same key and on column tick / (ticks per quarter / 4). The
// first tempo change sets the tempo; without one the default is used.
func ImportMIDI(r io.Reader, tones grid.ToneMap, cols int) (Imported, error) {
	rd, err := smf.ReadFrom(r)
	if err != nil {
		return Imported{}, apperr.Wrap(err, apperr.InvalidSavedData, "The MIDI file could not be read.")
	}
	mt, ok := rd.TimeFormat.(smf.MetricTicks)
	if !ok || uint32(mt) < grid.StepsPerBeat {
		return Imported{}, apperr.New(apperr.InvalidSavedData,
			fmt.Sprintf("midi import: unsupported time format %v", rd.TimeFormat),
			"Only MIDI files with metric timing can be imported.")
	}
	ticksPerStep := uint32(mt) / grid.StepsPerBeat

	out := Imported{
		Cells: make([][]bool, len(tones)),
		Tempo: grid.DefaultTempo,
	}
	for i := range out.Cells {
		out.Cells[i] = make([]bool, cols)
	}

	// Extract tempo if available
	if tempoChanges := rd.TempoChanges(); len(tempoChanges) > 0 {
		out.Tempo = grid.ClampTempo(int(math.Round(tempoChanges[0].BPM)))
	}

	for _, track := range rd.Tracks {
		var currentTick uint32
		for _, msg := range track {
			currentTick += msg.Delta

			var channel, key, velocity uint8
			if !msg.Message.GetNoteOn(&channel, &key, &velocity) || velocity == 0 {
				continue
			}
			row, ok := tones.Row(key)
			step := int(currentTick / ticksPerStep)
			if !ok || step >= cols {
				out.Skipped++
				continue
			}
			out.Cells[row][step] = true
		}
	}
	return out, nil
}
