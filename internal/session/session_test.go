package session

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/export"
	"github.com/icco/melodygrid/internal/grid"
	"github.com/icco/melodygrid/internal/sequencer"
	"github.com/icco/melodygrid/internal/store"
)

type fakeSynth struct {
	mu    sync.Mutex
	notes []float64
}

func (f *fakeSynth) PlayNote(freq, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, freq)
}

func (f *fakeSynth) CurrentTime() float64 { return 0 }

func newTestSession(t *testing.T) (*Session, *sequencer.ManualClock, *fakeSynth, *store.MemoryStore) {
	t.Helper()
	clock := &sequencer.ManualClock{}
	synth := &fakeSynth{}
	st := store.NewMemoryStore()
	r := export.NewRenderer()
	r.SampleRate = 8000
	r.Channels = 1
	s := New(Options{
		Clock:    clock,
		Audio:    func() (sequencer.Synthesizer, error) { return synth, nil },
		Store:    st,
		Renderer: r,
	})
	return s, clock, synth, st
}

func TestDefaults(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	if s.Grid().Rows() != 8 || s.Grid().Cols() != 16 {
		t.Errorf("Expected an 8x16 grid, got %dx%d", s.Grid().Rows(), s.Grid().Cols())
	}
	if s.Tempo() != grid.DefaultTempo {
		t.Errorf("Expected tempo %d, got %d", grid.DefaultTempo, s.Tempo())
	}
	if s.Playing() || s.CurrentColumn() != -1 {
		t.Error("Expected a stopped session")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	_, _ = s.Toggle(0, 0)
	_, _ = s.Toggle(5, 12)
	if err := s.SetTempo(97); err != nil {
		t.Fatalf("SetTempo: %v", err)
	}
	want := s.Grid().Cells()

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	_ = s.SetTempo(60)
	if s.Grid().Count() != 0 {
		t.Fatal("Expected Clear to empty the grid")
	}

	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(s.Grid().Cells(), want) {
		t.Error("Loaded grid differs from the saved grid")
	}
	if s.Tempo() != 97 {
		t.Errorf("Expected tempo 97, got %d", s.Tempo())
	}
}

func TestLoadFailuresLeaveStateUnchanged(t *testing.T) {
	s, _, _, st := newTestSession(t)
	_, _ = s.Toggle(2, 3)
	_ = s.SetTempo(150)
	before := s.Grid().Cells()

	err := s.Load()
	if !apperr.Is(err, apperr.NoSavedData) {
		t.Fatalf("Expected NoSavedData, got %v", err)
	}

	_ = st.Put(store.SaveKey, []byte(`{"grid":[]}`))
	err = s.Load()
	if !apperr.Is(err, apperr.InvalidSavedData) {
		t.Fatalf("Expected InvalidSavedData, got %v", err)
	}

	if !reflect.DeepEqual(s.Grid().Cells(), before) || s.Tempo() != 150 {
		t.Error("Expected a failed load to leave grid and tempo unchanged")
	}
}

func TestBusyWhilePlaying(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	defer s.Stop()

	checks := map[string]error{
		"clear":  s.Clear(),
		"save":   s.Save(),
		"load":   s.Load(),
		"tempo":  s.SetTempo(100),
		"import": func() error { _, err := s.ImportMIDI(bytes.NewReader(nil)); return err }(),
		"midi":   func() error { _, err := s.ExportMIDI(); return err }(),
		"wav":    func() error { _, err := s.ExportWAV(context.Background()); return err }(),
	}
	for name, err := range checks {
		if !apperr.Is(err, apperr.Busy) {
			t.Errorf("%s: expected Busy while playing, got %v", name, err)
		}
	}

	if on, err := s.Toggle(1, 1); err != nil || !on {
		t.Errorf("Expected cells to stay editable while playing, got %v, %v", on, err)
	}
}

func TestBusyWhileExporting(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	if err := s.beginExport(); err != nil {
		t.Fatalf("beginExport: %v", err)
	}
	if !s.Exporting() {
		t.Fatal("Expected Exporting to report the running export")
	}
	if _, err := s.ExportMIDI(); !apperr.Is(err, apperr.Busy) {
		t.Errorf("Expected Busy for a second export, got %v", err)
	}
	if err := s.Save(); !apperr.Is(err, apperr.Busy) {
		t.Errorf("Expected Busy for save during export, got %v", err)
	}
	s.endExport()

	if _, err := s.ExportMIDI(); err != nil {
		t.Errorf("Expected export to work again, got %v", err)
	}
	if s.Exporting() {
		t.Error("Expected the export flag to be released")
	}
}

func TestExportMIDIMatchesEncoder(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	_, _ = s.Toggle(7, 15)

	got, err := s.ExportMIDI()
	if err != nil {
		t.Fatalf("ExportMIDI: %v", err)
	}
	want, _ := export.EncodeMIDI(s.Grid().Snapshot(), grid.Pentatonic, 120)
	if !bytes.Equal(got, want) {
		t.Error("Session export differs from the encoder output")
	}
}

func TestExportWAV(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	_, _ = s.Toggle(0, 0)

	data, err := s.ExportWAV(context.Background())
	if err != nil {
		t.Fatalf("ExportWAV: %v", err)
	}
	// 16 columns at 120 BPM plus a one second tail, mono 16-bit at 8 kHz.
	frames := 3 * 8000
	if len(data) != export.WavHeaderSize+frames*2 {
		t.Errorf("Expected %d bytes, got %d", export.WavHeaderSize+frames*2, len(data))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ExportWAV(ctx); !apperr.Is(err, apperr.ExportFailure) {
		t.Errorf("Expected ExportFailure for a cancelled export, got %v", err)
	}
	if s.Exporting() {
		t.Error("Expected the export flag to be released after a failure")
	}
}

func TestImportMIDI(t *testing.T) {
	src, _, _, _ := newTestSession(t)
	_, _ = src.Toggle(3, 4)
	_, _ = src.Toggle(6, 10)
	_ = src.SetTempo(88)
	data, err := src.ExportMIDI()
	if err != nil {
		t.Fatalf("ExportMIDI: %v", err)
	}

	dst, _, _, _ := newTestSession(t)
	skipped, err := dst.ImportMIDI(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ImportMIDI: %v", err)
	}
	if skipped != 0 {
		t.Errorf("Expected no skipped notes, got %d", skipped)
	}
	if !reflect.DeepEqual(dst.Grid().Cells(), src.Grid().Cells()) || dst.Tempo() != 88 {
		t.Error("Imported session differs from the exported one")
	}
}

func TestPlayTriggersNotes(t *testing.T) {
	s, clock, synth, _ := newTestSession(t)
	_, _ = s.Toggle(1, 0)

	var steps []int
	s.OnStep(func(col int) { steps = append(steps, col) })

	if err := s.TogglePlay(); err != nil {
		t.Fatalf("TogglePlay: %v", err)
	}
	clock.Advance(1)
	if len(synth.notes) != 1 || synth.notes[0] != grid.Pentatonic[1].Frequency {
		t.Errorf("Expected A4 on the first tick, got %v", synth.notes)
	}
	if err := s.TogglePlay(); err != nil {
		t.Fatalf("TogglePlay: %v", err)
	}
	if s.Playing() {
		t.Error("Expected the second toggle to stop playback")
	}
	if !reflect.DeepEqual(steps, []int{0}) {
		t.Errorf("Unexpected step callbacks %v", steps)
	}
}

func TestPlayWithoutAudio(t *testing.T) {
	s := New(Options{
		Clock: &sequencer.ManualClock{},
		Audio: func() (sequencer.Synthesizer, error) { return nil, errors.New("no device") },
	})
	err := s.Play()
	if !apperr.Is(err, apperr.AudioUnavailable) {
		t.Fatalf("Expected AudioUnavailable, got %v", err)
	}
	if s.Playing() {
		t.Error("Expected the session to stay stopped")
	}
}
