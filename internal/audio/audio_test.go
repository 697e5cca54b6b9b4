package audio

import (
	"math"
	"testing"
)

func TestEnvelopeShape(t *testing.T) {
	env := LiveEnvelope

	if env.Gain(-0.001) != 0 {
		t.Error("Expected silence before note start")
	}
	if g := env.Gain(0); g <= 0 || g > env.Peak {
		t.Errorf("Expected a small positive gain at note start, got %v", g)
	}
	if g := env.Gain(env.Attack); math.Abs(g-env.Peak) > 1e-12 {
		t.Errorf("Expected peak %v at end of attack, got %v", env.Peak, g)
	}
	if g := env.Gain(env.Release - 1e-9); math.Abs(g-env.Floor) > 1e-6 {
		t.Errorf("Expected gain near floor just before release, got %v", g)
	}
	if env.Gain(env.Release) != 0 {
		t.Error("Expected silence from release on")
	}

	// Attack rises, decay falls.
	prev := 0.0
	for ts := 0.0; ts < env.Attack; ts += env.Attack / 10 {
		g := env.Gain(ts)
		if g < prev {
			t.Fatalf("Attack not monotonic at %v", ts)
		}
		prev = g
	}
	prev = env.Peak
	for ts := env.Attack; ts < env.Release; ts += 0.01 {
		g := env.Gain(ts)
		if g > prev+1e-12 {
			t.Fatalf("Decay not monotonic at %v", ts)
		}
		prev = g
	}
}

func TestEnvelopeWithPeak(t *testing.T) {
	env := LiveEnvelope.WithPeak(0.8)
	if env.Peak != 0.8 || LiveEnvelope.Peak != 0.5 {
		t.Errorf("Expected WithPeak to copy, got %v and %v", env.Peak, LiveEnvelope.Peak)
	}
	if g := env.Gain(env.Attack); math.Abs(g-0.8) > 1e-12 {
		t.Errorf("Expected peak 0.8, got %v", g)
	}
}

func TestMixerNoteStartsOnScheduledFrame(t *testing.T) {
	m := NewMixer(1000, 1, LiveEnvelope, WaveTriangle)
	m.PlayNote(100, 0.05)

	out := make([]float32, 100)
	m.Render(out)
	for i := 0; i < 50; i++ {
		if out[i] != 0 {
			t.Fatalf("Expected silence before frame 50, frame %d = %v", i, out[i])
		}
	}
	if out[50] == 0 {
		t.Error("Expected sound on frame 50")
	}
	if got := m.CurrentTime(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("Expected clock at 0.1s, got %v", got)
	}
}

func TestMixerBlockSizeDoesNotChangeOutput(t *testing.T) {
	live := NewMixer(8000, 2, LiveEnvelope, WaveTriangle)
	offline := NewMixer(8000, 2, LiveEnvelope, WaveTriangle)
	for _, m := range []*Mixer{live, offline} {
		m.PlayNote(440, 0)
		m.PlayNote(220, 0.125)
	}

	whole := make([]float32, 2*4000)
	offline.Render(whole)

	var pieces []float32
	for len(pieces) < len(whole) {
		block := make([]float32, 2*333)
		live.Render(block)
		pieces = append(pieces, block...)
	}
	for i := range whole {
		if whole[i] != pieces[i] {
			t.Fatalf("Sample %d differs: %v vs %v", i, whole[i], pieces[i])
		}
	}
	for i := 0; i < len(whole); i += 2 {
		if whole[i] != whole[i+1] {
			t.Fatalf("Expected identical stereo channels at frame %d", i/2)
		}
	}
}

func TestMixerDropsFinishedVoices(t *testing.T) {
	m := NewMixer(1000, 1, LiveEnvelope, WaveSine)
	m.PlayNote(100, 0)
	if m.ActiveVoices() != 1 {
		t.Fatalf("Expected 1 voice, got %d", m.ActiveVoices())
	}
	m.Render(make([]float32, 100))
	if m.ActiveVoices() != 1 {
		t.Errorf("Expected voice to still ring at 0.1s")
	}
	m.Render(make([]float32, 150))
	if m.ActiveVoices() != 0 {
		t.Errorf("Expected voice to be dropped after release, got %d", m.ActiveVoices())
	}
}

func TestMixerVoiceLimit(t *testing.T) {
	m := NewMixer(1000, 1, LiveEnvelope, WaveSine)
	for i := 0; i < DefaultVoiceLimit+10; i++ {
		m.PlayNote(100, float64(i)*0.001)
	}
	if m.ActiveVoices() != DefaultVoiceLimit {
		t.Errorf("Expected %d voices, got %d", DefaultVoiceLimit, m.ActiveVoices())
	}

	m = NewMixer(1000, 1, LiveEnvelope, WaveSine)
	m.SetVoiceLimit(0)
	for i := 0; i < 300; i++ {
		m.PlayNote(100, float64(i)*0.001)
	}
	if m.ActiveVoices() != 300 {
		t.Errorf("Expected an uncapped mixer to keep 300 voices, got %d", m.ActiveVoices())
	}
}

func TestMixerAllNotesOff(t *testing.T) {
	m := NewMixer(1000, 1, LiveEnvelope, WaveSquare)
	m.PlayNote(100, 0)
	m.PlayNote(200, 0)
	m.AllNotesOff()
	if m.ActiveVoices() != 0 {
		t.Fatalf("Expected no voices, got %d", m.ActiveVoices())
	}
	out := make([]float32, 20)
	m.Render(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("Frame %d: expected silence, got %v", i, v)
		}
	}
}

func TestMixerVolume(t *testing.T) {
	loud := NewMixer(1000, 1, LiveEnvelope, WaveSquare)
	quiet := NewMixer(1000, 1, LiveEnvelope, WaveSquare)
	quiet.SetVolume(0.5)
	loud.PlayNote(50, 0)
	quiet.PlayNote(50, 0)
	a := make([]float32, 50)
	b := make([]float32, 50)
	loud.Render(a)
	quiet.Render(b)
	for i := range a {
		if math.Abs(float64(a[i])*0.5-float64(b[i])) > 1e-6 {
			t.Fatalf("Frame %d: expected half volume, got %v vs %v", i, a[i], b[i])
		}
	}
}

func TestToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{1.5, 32767},
		{-2, -32768},
		{0.5, 16383},
		{-0.5, -16384},
	}
	for _, tt := range tests {
		if got := ToInt16(tt.in); got != tt.want {
			t.Errorf("ToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseWave(t *testing.T) {
	for _, name := range []string{"triangle", "sine", "square", "sawtooth"} {
		w, ok := ParseWave(name)
		if !ok || w.String() != name {
			t.Errorf("ParseWave(%q) = %v, %v", name, w, ok)
		}
	}
	if _, ok := ParseWave("organ"); ok {
		t.Error("Expected unknown wave to be rejected")
	}
}
