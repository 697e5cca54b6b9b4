package grid

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNewGridIsEmpty(t *testing.T) {
	g := NewDefault()
	if g.Rows() != 8 || g.Cols() != 16 {
		t.Fatalf("Expected 8x16 grid, got %dx%d", g.Rows(), g.Cols())
	}
	if g.Count() != 0 {
		t.Errorf("Expected no active cells, got %d", g.Count())
	}
}

func TestDoubleToggleRestoresGrid(t *testing.T) {
	g := NewDefault()
	_ = g.Set(2, 3, true)
	_ = g.Set(7, 15, true)
	before := g.Cells()

	for _, c := range []Cell{{0, 0}, {2, 3}, {7, 15}, {4, 9}} {
		on, err := g.Toggle(c.Row, c.Col)
		if err != nil {
			t.Fatalf("Toggle(%d,%d): %v", c.Row, c.Col, err)
		}
		if on == before[c.Row][c.Col] {
			t.Errorf("Expected first toggle of (%d,%d) to flip the cell", c.Row, c.Col)
		}
		if _, err := g.Toggle(c.Row, c.Col); err != nil {
			t.Fatalf("Toggle(%d,%d): %v", c.Row, c.Col, err)
		}
	}

	if !reflect.DeepEqual(before, g.Cells()) {
		t.Error("Expected double toggle to restore the original grid")
	}
}

func TestToggleOutOfRange(t *testing.T) {
	g := NewDefault()
	tests := []struct {
		row, col int
	}{
		{-1, 0}, {0, -1}, {8, 0}, {0, 16},
	}
	for _, tt := range tests {
		if _, err := g.Toggle(tt.row, tt.col); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Toggle(%d,%d): expected ErrOutOfRange, got %v", tt.row, tt.col, err)
		}
	}
	if g.Count() != 0 {
		t.Error("Expected out of range toggles to leave the grid unchanged")
	}
}

func TestClear(t *testing.T) {
	g := NewDefault()
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c += r + 1 {
			_ = g.Set(r, c, true)
		}
	}
	g.Clear()
	if g.Count() != 0 {
		t.Errorf("Expected all cells off after Clear, got %d active", g.Count())
	}
	if g.Rows() != 8 || g.Cols() != 16 {
		t.Error("Expected Clear to keep the grid shape")
	}
}

func TestReplaceIsAllOrNothing(t *testing.T) {
	g := NewDefault()
	_ = g.Set(1, 1, true)

	bad := make([][]bool, 8)
	for r := range bad {
		bad[r] = make([]bool, 16)
	}
	bad[3] = make([]bool, 15)
	bad[0][0] = true
	if err := g.Replace(bad); !errors.Is(err, ErrDimensions) {
		t.Fatalf("Expected ErrDimensions, got %v", err)
	}
	if !g.Active(1, 1) || g.Active(0, 0) {
		t.Error("Expected failed Replace to leave the grid unchanged")
	}

	good := make([][]bool, 8)
	for r := range good {
		good[r] = make([]bool, 16)
	}
	good[5][10] = true
	if err := g.Replace(good); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// The grid must not alias the caller's slices.
	good[5][10] = false
	if !g.Active(5, 10) || g.Active(1, 1) {
		t.Error("Expected Replace to copy the new matrix")
	}
}

func TestColumnAndSnapshot(t *testing.T) {
	g := NewDefault()
	_ = g.Set(6, 4, true)
	_ = g.Set(1, 4, true)
	_ = g.Set(0, 0, true)

	if got := g.Column(4); !reflect.DeepEqual(got, []int{1, 6}) {
		t.Errorf("Expected rows [1 6] in column 4, got %v", got)
	}
	if got := g.Column(16); got != nil {
		t.Errorf("Expected nil for out of range column, got %v", got)
	}

	snap := g.Snapshot()
	g.Clear()
	want := []Cell{{Row: 0, Col: 0}, {Row: 1, Col: 4}, {Row: 6, Col: 4}}
	if got := snap.ActiveCells(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected snapshot cells %v, got %v", want, got)
	}
	if !snap.Active(6, 4) || snap.Active(-1, 0) {
		t.Error("Unexpected snapshot Active result")
	}
}

func TestSnapshotOf(t *testing.T) {
	if _, err := SnapshotOf(nil); !errors.Is(err, ErrDimensions) {
		t.Errorf("Expected ErrDimensions for empty matrix, got %v", err)
	}
	if _, err := SnapshotOf([][]bool{{true, false}, {true}}); !errors.Is(err, ErrDimensions) {
		t.Errorf("Expected ErrDimensions for ragged matrix, got %v", err)
	}
	s, err := SnapshotOf([][]bool{{false, true}, {false, false}})
	if err != nil {
		t.Fatalf("SnapshotOf: %v", err)
	}
	if s.Rows() != 2 || s.Cols() != 2 || !s.Active(0, 1) {
		t.Error("Unexpected snapshot contents")
	}
}

func TestStepSecondsMatchesFifteenOverBPM(t *testing.T) {
	for bpm := MinTempo; bpm <= MaxTempo; bpm++ {
		if got, want := StepSeconds(bpm), 15.0/float64(bpm); got != want {
			t.Fatalf("StepSeconds(%d) = %v, want %v", bpm, got, want)
		}
	}
	if StepInterval(120) != 125*time.Millisecond {
		t.Errorf("Expected 125ms at 120 BPM, got %v", StepInterval(120))
	}
}

func TestTempoHelpers(t *testing.T) {
	tests := []struct {
		in, clamped int
		valid       bool
	}{
		{10, 40, false},
		{40, 40, true},
		{120, 120, true},
		{240, 240, true},
		{300, 240, false},
	}
	for _, tt := range tests {
		if got := ClampTempo(tt.in); got != tt.clamped {
			t.Errorf("ClampTempo(%d) = %d, want %d", tt.in, got, tt.clamped)
		}
		if got := ValidTempo(tt.in); got != tt.valid {
			t.Errorf("ValidTempo(%d) = %v, want %v", tt.in, got, tt.valid)
		}
	}
	if MicrosecondsPerBeat(120) != 500000 {
		t.Errorf("Expected 500000us at 120 BPM, got %d", MicrosecondsPerBeat(120))
	}
	if MicrosecondsPerBeat(70) != 857142 {
		t.Errorf("Expected floor(60e6/70)=857142, got %d", MicrosecondsPerBeat(70))
	}
}

func TestToneMap(t *testing.T) {
	if len(Pentatonic) != DefaultRows {
		t.Fatalf("Expected %d tones, got %d", DefaultRows, len(Pentatonic))
	}
	tone, err := Pentatonic.Tone(7)
	if err != nil || tone.Note != 55 || tone.Frequency != 196.00 {
		t.Errorf("Unexpected tone for row 7: %+v (%v)", tone, err)
	}
	if _, err := Pentatonic.Tone(8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
	if row, ok := Pentatonic.Row(64); !ok || row != 3 {
		t.Errorf("Expected note 64 on row 3, got %d (%v)", row, ok)
	}
	if _, ok := Pentatonic.Row(61); ok {
		t.Error("Expected note 61 to be absent")
	}
	// Frequencies follow equal temperament to within a cent.
	for _, tone := range Pentatonic {
		if f := NoteFrequency(tone.Note); f/tone.Frequency > 1.0006 || tone.Frequency/f > 1.0006 {
			t.Errorf("%s: %v Hz does not match note %d (%v Hz)", tone.Name, tone.Frequency, tone.Note, f)
		}
		if NoteName(tone.Note) != tone.Name {
			t.Errorf("Expected name %s for note %d, got %s", tone.Name, tone.Note, NoteName(tone.Note))
		}
	}
}
