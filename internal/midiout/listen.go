package midiout

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// EventKind classifies an incoming message.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	AllNotesOff
)

// Event is an incoming message the synthesizer cares about.
type Event struct {
	Kind     EventKind
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// parseMessage extracts note events. A Note-On with velocity 0 is a Note-Off.
func parseMessage(msg midi.Message) (Event, bool) {
	var ch, key, vel, ctrl, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: NoteOn, Channel: ch, Note: key, Velocity: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: NoteOff, Channel: ch, Note: key}, true
	case msg.GetControlChange(&ch, &ctrl, &val) && ctrl == allNotesOff:
		return Event{Kind: AllNotesOff, Channel: ch}, true
	}
	return Event{}, false
}

// Input is a virtual MIDI input port other applications can send to.
type Input struct {
	driver *rtmididrv.Driver
	in     drivers.In
	stop   func()
}

// ListenVirtual creates a virtual input called name and calls fn for every
// note event it receives. fn runs on the driver's goroutine.
func ListenVirtual(name string, fn func(Event)) (*Input, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	in, err := driver.OpenVirtualIn(name)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create virtual MIDI port: %w", err)
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		if ev, ok := parseMessage(msg); ok {
			fn(ev)
		}
	})
	if err != nil {
		_ = in.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("failed to listen to MIDI port: %w", err)
	}
	return &Input{driver: driver, in: in, stop: stop}, nil
}

// Name returns the port name as other applications see it.
func (i *Input) Name() string { return i.in.String() }

// Close stops listening and removes the virtual port.
func (i *Input) Close() error {
	i.stop()
	_ = i.in.Close()
	return i.driver.Close()
}
