// Package session ties the grid, the transport, persistence and export
// together behind the calls the user interface makes.
package session

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/export"
	"github.com/icco/melodygrid/internal/grid"
	"github.com/icco/melodygrid/internal/sequencer"
	"github.com/icco/melodygrid/internal/store"
)

// Options configure a Session. Zero fields get the reference defaults.
type Options struct {
	Rows     int
	Cols     int
	Tones    grid.ToneMap
	Tempo    int
	Clock    sequencer.Clock
	Audio    sequencer.AudioOpener
	Store    store.Store
	Renderer *export.Renderer
}

// Session is the state of one melody being edited.
type Session struct {
	mu        sync.Mutex
	grid      *grid.Grid
	tones     grid.ToneMap
	seq       *sequencer.Sequencer
	store     store.Store
	renderer  *export.Renderer
	exporting bool

	log *logrus.Entry
}

// New creates a session with an empty grid.
func New(opts Options) *Session {
	if opts.Rows <= 0 {
		opts.Rows = grid.DefaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = grid.DefaultCols
	}
	if opts.Tones == nil {
		opts.Tones = grid.Pentatonic
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Renderer == nil {
		opts.Renderer = export.NewRenderer()
	}
	g := grid.New(opts.Rows, opts.Cols)
	seq := sequencer.New(g, opts.Tones, opts.Clock, opts.Audio)
	if opts.Tempo != 0 {
		_ = seq.SetTempo(opts.Tempo)
	}
	return &Session{
		grid:     g,
		tones:    opts.Tones,
		seq:      seq,
		store:    opts.Store,
		renderer: opts.Renderer,
		log:      logrus.WithField("component", "session"),
	}
}

// Grid returns the edited grid.
func (s *Session) Grid() *grid.Grid { return s.grid }

// Tones returns the row to pitch mapping.
func (s *Session) Tones() grid.ToneMap { return s.tones }

// Tempo returns the tempo in BPM.
func (s *Session) Tempo() int { return s.seq.Tempo() }

// Playing reports whether the transport is running.
func (s *Session) Playing() bool { return s.seq.Playing() }

// CurrentColumn returns the playing column, or -1 when stopped.
func (s *Session) CurrentColumn() int { return s.seq.CurrentColumn() }

// OnStep registers a callback for every tick. See sequencer.Sequencer.OnStep.
func (s *Session) OnStep(fn func(int)) { s.seq.OnStep(fn) }

// ClearOutputs removes every extra note destination.
func (s *Session) ClearOutputs() { s.seq.ClearOutputs() }

// AddOutput mirrors triggered notes to out.
func (s *Session) AddOutput(out sequencer.NoteOutput) { s.seq.AddOutput(out) }

// Exporting reports whether an export is in flight.
func (s *Session) Exporting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporting
}

// Toggle flips one cell. Cells can be edited while playing; the transport
// picks the change up on the next pass over the column.
func (s *Session) Toggle(row, col int) (bool, error) {
	return s.grid.Toggle(row, col)
}

// SetTempo changes the tempo, clamped to the control range. It fails with
// apperr.Busy while playing.
func (s *Session) SetTempo(bpm int) error {
	return s.seq.SetTempo(bpm)
}

// Clear empties the grid. It fails with apperr.Busy while playing.
func (s *Session) Clear() error {
	if err := s.idle("clear"); err != nil {
		return err
	}
	s.grid.Clear()
	return nil
}

// Play starts the transport.
func (s *Session) Play() error {
	return s.seq.Start()
}

// Stop halts the transport.
func (s *Session) Stop() {
	s.seq.Stop()
}

// TogglePlay starts a stopped transport and stops a running one.
func (s *Session) TogglePlay() error {
	if s.seq.Playing() {
		s.seq.Stop()
		return nil
	}
	return s.seq.Start()
}

// Save stores the grid and tempo, replacing the previous save.
func (s *Session) Save() error {
	if err := s.idle("save"); err != nil {
		return err
	}
	saved := store.SavedSession{Grid: s.grid.Cells(), Tempo: s.seq.Tempo()}
	if err := store.Save(s.store, saved); err != nil {
		return apperr.Wrap(err, apperr.ExportFailure, "Could not save melody.")
	}
	s.log.WithField("cells", s.grid.Count()).Info("session saved")
	return nil
}

// Load replaces the grid and tempo with the saved session. Nothing changes
// when there is no save or it is invalid.
func (s *Session) Load() error {
	if err := s.idle("load"); err != nil {
		return err
	}
	saved, err := store.Load(s.store, s.grid.Rows(), s.grid.Cols())
	if err != nil {
		return err
	}
	return s.apply(saved.Grid, saved.Tempo)
}

// ImportMIDI replaces the grid and tempo with the notes of a MIDI file and
// returns how many notes did not fit the grid.
func (s *Session) ImportMIDI(r io.Reader) (int, error) {
	if err := s.idle("import"); err != nil {
		return 0, err
	}
	imp, err := export.ImportMIDI(r, s.tones, s.grid.Cols())
	if err != nil {
		return 0, err
	}
	if err := s.apply(imp.Cells, imp.Tempo); err != nil {
		return 0, err
	}
	return imp.Skipped, nil
}

func (s *Session) apply(cells [][]bool, tempo int) error {
	prev := s.seq.Tempo()
	if err := s.seq.SetTempo(tempo); err != nil {
		return err
	}
	if err := s.grid.Replace(cells); err != nil {
		_ = s.seq.SetTempo(prev)
		return apperr.Wrap(err, apperr.InvalidSavedData, "Could not load melody. Saved data is in an invalid format.")
	}
	return nil
}

// ExportMIDI encodes the current grid as a Standard MIDI File.
func (s *Session) ExportMIDI() ([]byte, error) {
	if err := s.beginExport(); err != nil {
		return nil, err
	}
	defer s.endExport()
	return export.EncodeMIDI(s.grid.Snapshot(), s.tones, s.seq.Tempo())
}

// ExportWAV renders the current grid to WAV bytes.
func (s *Session) ExportWAV(ctx context.Context) ([]byte, error) {
	if err := s.beginExport(); err != nil {
		return nil, err
	}
	defer s.endExport()
	return s.renderer.WAV(ctx, s.grid.Snapshot(), s.tones, s.seq.Tempo())
}

func (s *Session) beginExport() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exporting {
		return apperr.New(apperr.Busy, "export already running", "An export is already in progress.")
	}
	if s.seq.Playing() {
		return apperr.New(apperr.Busy, "export while playing", "Stop playback to export.")
	}
	s.exporting = true
	return nil
}

func (s *Session) endExport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exporting = false
}

func (s *Session) idle(op string) error {
	if s.seq.Playing() {
		return apperr.New(apperr.Busy, op+" while playing", "Stop playback first.")
	}
	if s.Exporting() {
		return apperr.New(apperr.Busy, op+" while exporting", "Wait for the export to finish.")
	}
	return nil
}

// Close stops playback.
func (s *Session) Close() {
	s.seq.Stop()
}
