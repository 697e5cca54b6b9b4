package midiout

import (
	"sync"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/icco/melodygrid/internal/grid"
)

type recorder struct {
	mu     sync.Mutex
	msgs   []midi.Message
	closed bool
}

func (r *recorder) send(msg midi.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) snapshot() []midi.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]midi.Message(nil), r.msgs...)
}

func TestNextPort(t *testing.T) {
	names := []string{"A", "B"}
	tests := []struct {
		current string
		want    string
	}{
		{"", "A"},
		{"A", "B"},
		{"B", ""},
		{"gone", "A"},
	}
	for _, tt := range tests {
		if got := NextPort(names, tt.current); got != tt.want {
			t.Errorf("NextPort(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
	if got := NextPort(nil, "A"); got != "" {
		t.Errorf("Expected no port without outputs, got %q", got)
	}
}

func TestSendNoteOnThenOff(t *testing.T) {
	rec := &recorder{}
	p := newPort("test", 2, rec.send, rec.close)
	tone := grid.Pentatonic[7]

	p.SendNote(tone, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	msgs := rec.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("Expected note on and note off, got %v", msgs)
	}

	var ch, key, vel uint8
	if !msgs[0].GetNoteOn(&ch, &key, &vel) || ch != 2 || key != 55 || vel != DefaultVelocity {
		t.Errorf("Unexpected first message %v", msgs[0])
	}
	if !msgs[1].GetNoteOff(&ch, &key, &vel) || ch != 2 || key != 55 {
		t.Errorf("Unexpected second message %v", msgs[1])
	}
}

func TestCloseDropsPendingNoteOffs(t *testing.T) {
	rec := &recorder{}
	p := newPort("test", 0, rec.send, rec.close)

	p.SendNote(grid.Pentatonic[0], time.Hour)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p.SendNote(grid.Pentatonic[0], time.Millisecond)
	_ = p.Close()

	msgs := rec.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("Expected note on and all-notes-off, got %v", msgs)
	}
	var ch, ctrl, val uint8
	if !msgs[1].GetControlChange(&ch, &ctrl, &val) || ctrl != allNotesOff {
		t.Errorf("Expected all-notes-off, got %v", msgs[1])
	}
	if !rec.closed {
		t.Error("Expected the underlying port to be closed")
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  midi.Message
		want Event
		ok   bool
	}{
		{"note on", midi.NoteOn(1, 60, 90), Event{Kind: NoteOn, Channel: 1, Note: 60, Velocity: 90}, true},
		{"note off", midi.NoteOff(1, 60), Event{Kind: NoteOff, Channel: 1, Note: 60}, true},
		{"zero velocity", midi.NoteOn(0, 64, 0), Event{Kind: NoteOff, Channel: 0, Note: 64}, true},
		{"all notes off", midi.ControlChange(3, 123, 0), Event{Kind: AllNotesOff, Channel: 3}, true},
		{"other cc", midi.ControlChange(3, 7, 100), Event{}, false},
		{"program change", midi.ProgramChange(0, 5), Event{}, false},
	}
	for _, tt := range tests {
		got, ok := parseMessage(tt.msg)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: got %+v, %v; want %+v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
