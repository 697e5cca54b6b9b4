// Package audio provides the note voice, a sample-accurate mixer and the live
// oto output that plays it.
package audio

import "sync"

const (
	DefaultSampleRate = 44100
	// DefaultVoiceLimit caps live polyphony.
	DefaultVoiceLimit = 128
)

// Mixer sums scheduled voices into interleaved float frames. Its clock is the
// number of frames rendered so far, so a note scheduled at time t starts on
// frame round(t*sampleRate) whether it is rendered live or offline.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	envelope   Envelope
	wave       WaveType
	volume     float64
	limit      int // 0 means unlimited
	voices     []*Voice
	frame      int64
}

// NewMixer creates a mixer. channels is 1 (mono) or 2 (stereo, both sides
// equal).
func NewMixer(sampleRate, channels int, env Envelope, wave WaveType) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels < 1 {
		channels = 1
	}
	return &Mixer{
		sampleRate: sampleRate,
		channels:   channels,
		envelope:   env,
		wave:       wave,
		volume:     1,
		limit:      DefaultVoiceLimit,
	}
}

// SampleRate returns the frame rate in Hz.
func (m *Mixer) SampleRate() int { return m.sampleRate }

// Channels returns the number of interleaved channels.
func (m *Mixer) Channels() int { return m.channels }

// PlayNote schedules one tone starting at startTime seconds on the mixer
// clock. It never blocks on audio output.
func (m *Mixer) PlayNote(frequencyHz, startTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.limit > 0 && len(m.voices) >= m.limit {
		// Steal oldest voice
		m.voices = m.voices[1:]
	}
	m.voices = append(m.voices, &Voice{
		frequency: frequencyHz,
		start:     startTime,
		envelope:  m.envelope,
		wave:      m.wave,
	})
}

// CurrentTime returns the mixer clock in seconds.
func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.frame) / float64(m.sampleRate)
}

// SetVolume sets the master volume (0.0 - 1.0)
func (m *Mixer) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol
}

// SetVoiceLimit caps the number of voices; scheduling past the cap steals
// the oldest voice. n <= 0 removes the cap.
func (m *Mixer) SetVoiceLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = max(n, 0)
}

// AllNotesOff drops every scheduled voice.
func (m *Mixer) AllNotesOff() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.voices)
	m.voices = m.voices[:0]
}

// ActiveVoices returns the number of voices not yet finished.
func (m *Mixer) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Render fills out with len(out)/channels frames and advances the clock.
// Samples are not clipped.
func (m *Mixer) Render(out []float32) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(out) / m.channels
	sr := float64(m.sampleRate)
	for i := 0; i < frames; i++ {
		t := float64(m.frame+int64(i)) / sr
		var sample float64
		for _, v := range m.voices {
			sample += v.Sample(t)
		}
		s := float32(sample * m.volume)
		for c := 0; c < m.channels; c++ {
			out[i*m.channels+c] = s
		}
	}
	m.frame += int64(frames)

	// Drop finished voices
	now := float64(m.frame) / sr
	kept := m.voices[:0]
	for _, v := range m.voices {
		if !v.done(now) {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = kept

	return frames
}
