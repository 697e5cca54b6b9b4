package export

import (
	"bytes"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/grid"
)

const (
	// TicksPerBeat is the SMF division (ticks per quarter note).
	TicksPerBeat = 96
	// TicksPerStep is the length of one grid column in ticks.
	TicksPerStep = TicksPerBeat / grid.StepsPerBeat
	// NoteVelocity is the Note-On velocity of every exported cell.
	NoteVelocity = 100

	maxTempo = 0xFFFFFF
)

type trackEvent struct {
	tick  uint32
	order int // events on the same tick: tempo, note-offs, note-ons
	data  []byte
}

const (
	orderTempo = iota
	orderNoteOff
	orderNoteOn
)

// EncodeMIDI converts the grid into a format 0 Standard MIDI File with one
// track: a tempo event, a Note-On/Note-Off pair per active cell (one column
// long, placed at col * TicksPerStep) and an end-of-track event after the
// last column.
func EncodeMIDI(snap grid.Snapshot, tones grid.ToneMap, bpm int) ([]byte, error) {
	if bpm <= 0 {
		return nil, apperr.New(apperr.ExportFailure, fmt.Sprintf("midi: invalid tempo %d", bpm), "Could not encode the MIDI file.")
	}
	mpb := grid.MicrosecondsPerBeat(bpm)
	if mpb > maxTempo {
		return nil, apperr.New(apperr.ExportFailure, fmt.Sprintf("midi: tempo %d too slow", bpm), "Could not encode the MIDI file.")
	}

	// smf.MetaTempo takes a float BPM; the exact floor value is written raw.
	events := []trackEvent{{
		tick:  0,
		order: orderTempo,
		data:  []byte{0xFF, 0x51, 0x03, byte(mpb >> 16), byte(mpb >> 8), byte(mpb)},
	}}
	for _, c := range snap.ActiveCells() {
		tone, err := tones.Tone(c.Row)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ExportFailure, "Could not encode the MIDI file.")
		}
		start := uint32(c.Col) * TicksPerStep //nolint:gosec // c.Col is bounded by the grid width
		events = append(events,
			trackEvent{tick: start, order: orderNoteOn, data: midi.NoteOn(0, tone.Note, NoteVelocity)},
			trackEvent{tick: start + TicksPerStep, order: orderNoteOff, data: midi.NoteOff(0, tone.Note)},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].order < events[j].order
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerBeat)
	s.NoRunningStatus = true

	var tr smf.Track
	var last uint32
	for _, ev := range events {
		tr.Add(ev.tick-last, ev.data)
		last = ev.tick
	}
	end := uint32(snap.Cols()) * TicksPerStep //nolint:gosec // grid width is small
	tr.Close(end - last)
	if err := s.Add(tr); err != nil {
		return nil, apperr.Wrap(err, apperr.ExportFailure, "Could not encode the MIDI file.")
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, apperr.Wrap(err, apperr.ExportFailure, "Could not encode the MIDI file.")
	}
	return buf.Bytes(), nil
}
