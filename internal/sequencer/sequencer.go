// Package sequencer implements the live transport: a column cursor advanced
// once per sixteenth note that triggers the active cells of each new column.
package sequencer

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/grid"
)

// Synthesizer schedules tones on an audio clock.
type Synthesizer interface {
	PlayNote(frequencyHz, startTime float64)
	CurrentTime() float64
}

// NoteOutput receives every triggered tone, e.g. an external MIDI port.
type NoteOutput interface {
	SendNote(tone grid.Tone, length time.Duration)
}

// AudioOpener creates the audio output on first use.
type AudioOpener func() (Synthesizer, error)

// Sequencer is the playback transport for one grid.
type Sequencer struct {
	mu      sync.Mutex
	grid    *grid.Grid
	tones   grid.ToneMap
	clock   Clock
	open    AudioOpener
	synth   Synthesizer
	outputs []NoteOutput
	onStep  func(col int)
	stepMu  sync.Mutex // held while a step is delivered

	bpm     int
	column  int
	playing bool
	gen     uint64
	task    Task

	log *logrus.Entry
}

// New creates a stopped sequencer. The audio output is opened on the first
// Start.
func New(g *grid.Grid, tones grid.ToneMap, clock Clock, open AudioOpener) *Sequencer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Sequencer{
		grid:   g,
		tones:  tones,
		clock:  clock,
		open:   open,
		bpm:    grid.DefaultTempo,
		column: -1,
		log:    logrus.WithField("component", "sequencer"),
	}
}

// OnStep registers a callback run after every tick with the new column. It
// runs on the clock goroutine, never on the caller of Start or Stop, and must
// not block or call back into Start or Stop.
func (s *Sequencer) OnStep(fn func(col int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStep = fn
}

// AddOutput registers an extra note destination.
func (s *Sequencer) AddOutput(out NoteOutput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs = append(s.outputs, out)
}

// ClearOutputs removes every extra note destination.
func (s *Sequencer) ClearOutputs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs = nil
}

// Tempo returns the current tempo in BPM.
func (s *Sequencer) Tempo() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

// SetTempo changes the tempo used by the next Start. The tempo is locked
// while playing.
func (s *Sequencer) SetTempo(bpm int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return apperr.New(apperr.Busy, "tempo change while playing", "Stop playback to change the tempo.")
	}
	s.bpm = grid.ClampTempo(bpm)
	return nil
}

// CurrentColumn returns the highlighted column, or -1 when stopped.
func (s *Sequencer) CurrentColumn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.column
}

// Playing reports whether the transport is running.
func (s *Sequencer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Start begins ticking at one column per sixteenth note. Starting a running
// sequencer does nothing. If the audio output cannot be opened the sequencer
// stays stopped and the error has kind apperr.AudioUnavailable.
func (s *Sequencer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return nil
	}
	if s.synth == nil {
		if s.open == nil {
			return apperr.New(apperr.AudioUnavailable, "no audio output configured", "Audio output is unavailable.")
		}
		synth, err := s.open()
		if err != nil {
			if apperr.Kind(err) == "" {
				err = apperr.Wrap(err, apperr.AudioUnavailable, "Audio output is unavailable.")
			}
			s.log.WithError(err).Warn("cannot open audio output")
			return err
		}
		s.synth = synth
	}

	s.playing = true
	s.column = -1
	s.gen++
	gen := s.gen
	interval := grid.StepInterval(s.bpm)
	s.task = s.clock.Every(interval, func() { s.tick(gen) })

	s.log.WithFields(logrus.Fields{"bpm": s.bpm, "interval": interval}).Info("playback started")
	return nil
}

// Stop halts ticking and resets the cursor. No tick fires and no step is
// delivered after Stop returns; tones already scheduled ring out.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	wasPlaying := s.playing
	s.playing = false
	s.gen++
	if s.task != nil {
		s.task.Stop()
		s.task = nil
	}
	s.column = -1
	s.mu.Unlock()

	// Wait for a step already being delivered.
	s.stepMu.Lock()
	s.stepMu.Unlock() //nolint:staticcheck // empty critical section

	if wasPlaying {
		s.log.Info("playback stopped")
	}
}

// tick advances the cursor and triggers the active cells of the new column.
// Ticks from a previous Start are ignored.
func (s *Sequencer) tick(gen uint64) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	s.mu.Lock()
	if !s.playing || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.column = (s.column + 1) % s.grid.Cols()
	col := s.column

	rows := s.grid.Column(col)
	if len(rows) > 0 {
		at := s.synth.CurrentTime()
		length := grid.StepInterval(s.bpm)
		for _, row := range rows {
			tone, err := s.tones.Tone(row)
			if err != nil {
				continue
			}
			s.synth.PlayNote(tone.Frequency, at)
			for _, out := range s.outputs {
				out.SendNote(tone, length)
			}
		}
	}
	onStep := s.onStep
	s.mu.Unlock()

	if onStep != nil {
		onStep(col)
	}
}
