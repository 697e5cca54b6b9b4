package grid

import (
	"fmt"
	"math"
)

// Tone is the pitch assigned to one grid row.
type Tone struct {
	Name      string
	Frequency float64 // Hz
	Note      uint8   // MIDI note number
}

// ToneMap maps row index to pitch. Entry i always belongs to row i.
type ToneMap []Tone

// Pentatonic is C major pentatonic descending from C5, one tone per row of
// the default grid.
var Pentatonic = ToneMap{
	{Name: "C5", Frequency: 523.25, Note: 72},
	{Name: "A4", Frequency: 440.00, Note: 69},
	{Name: "G4", Frequency: 392.00, Note: 67},
	{Name: "E4", Frequency: 329.63, Note: 64},
	{Name: "D4", Frequency: 293.66, Note: 62},
	{Name: "C4", Frequency: 261.63, Note: 60},
	{Name: "A3", Frequency: 220.00, Note: 57},
	{Name: "G3", Frequency: 196.00, Note: 55},
}

// Tone returns the tone for a row.
func (m ToneMap) Tone(row int) (Tone, error) {
	if row < 0 || row >= len(m) {
		return Tone{}, fmt.Errorf("tone for row %d: %w", row, ErrOutOfRange)
	}
	return m[row], nil
}

// Row returns the row whose tone has the given MIDI note.
func (m ToneMap) Row(note uint8) (int, bool) {
	for i, t := range m {
		if t.Note == note {
			return i, true
		}
	}
	return -1, false
}

// NoteFrequency converts a MIDI note number to Hz, A4 (69) = 440 Hz.
func NoteFrequency(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

// NoteName formats a MIDI note number as a pitch name like "C4".
func NoteName(note uint8) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", names[note%12], octave)
}
