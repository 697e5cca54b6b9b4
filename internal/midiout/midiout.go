// Package midiout mirrors the sequencer onto external MIDI ports and feeds
// incoming notes from a virtual input back into the synthesizer.
package midiout

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/icco/melodygrid/internal/grid"
)

const (
	// DefaultVelocity is used for every note sent to an output port.
	DefaultVelocity = 100
	allNotesOff     = 123
)

// PortNames lists the available MIDI output ports.
func PortNames() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// NextPort returns the port after current in names, or "" (no output) after
// the last one. An unknown current starts at the first port.
func NextPort(names []string, current string) string {
	if len(names) == 0 {
		return ""
	}
	if current == "" {
		return names[0]
	}
	for i, n := range names {
		if n == current {
			if i+1 < len(names) {
				return names[i+1]
			}
			return ""
		}
	}
	return names[0]
}

// Port sends sequencer notes to one MIDI output on a single channel.
type Port struct {
	mu      sync.Mutex
	name    string
	channel uint8
	send    func(msg midi.Message) error
	close   func() error
	timers  map[*time.Timer]struct{}
	closed  bool
	log     *logrus.Entry
}

// Open connects to the output port with the given name.
func Open(name string, channel uint8) (*Port, error) {
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("can't find MIDI output %q: %w", name, err)
	}
	return OpenPort(out, channel)
}

// OpenPort connects to an already resolved output port.
func OpenPort(out drivers.Out, channel uint8) (*Port, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", out.String(), err)
	}
	return newPort(out.String(), channel, send, out.Close), nil
}

func newPort(name string, channel uint8, send func(midi.Message) error, closeFn func() error) *Port {
	return &Port{
		name:    name,
		channel: channel & 0x0F,
		send:    send,
		close:   closeFn,
		timers:  make(map[*time.Timer]struct{}),
		log:     logrus.WithFields(logrus.Fields{"component": "midiout", "port": name}),
	}
}

// Name returns the port name.
func (p *Port) Name() string { return p.name }

// SendNote sends a Note-On for the tone's key now and the matching Note-Off
// after length.
func (p *Port) SendNote(tone grid.Tone, length time.Duration) {
	note := tone.Note
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if err := p.send(midi.NoteOn(p.channel, note, DefaultVelocity)); err != nil {
		p.log.WithError(err).Warn("note on failed")
		return
	}

	var t *time.Timer
	t = time.AfterFunc(length, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.timers, t)
		if p.closed {
			return
		}
		if err := p.send(midi.NoteOff(p.channel, note)); err != nil {
			p.log.WithError(err).Warn("note off failed")
		}
	})
	p.timers[t] = struct{}{}
}

// Close sends all-notes-off and releases the port. Pending Note-Offs are
// dropped.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for t := range p.timers {
		t.Stop()
	}
	p.timers = nil
	_ = p.send(midi.ControlChange(p.channel, allNotesOff, 0))
	if p.close != nil {
		return p.close()
	}
	return nil
}
