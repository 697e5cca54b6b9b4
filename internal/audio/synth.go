package audio

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/icco/melodygrid/internal/apperr"
)

const (
	channelCount = 2 // stereo
	bitDepth     = 2 // 16-bit
)

// Options configure the live synthesizer.
type Options struct {
	SampleRate int
	Volume     float64
	Envelope   Envelope
	Wave       WaveType
	BufferSize time.Duration
}

// Synth plays mixer output through the system audio device.
type Synth struct {
	mu      sync.Mutex
	otoCtx  *oto.Context
	player  *oto.Player
	mixer   *Mixer
	scratch []float32
	running bool
}

// NewSynth opens the audio device. oto allows a single context per process,
// so callers keep the returned Synth for the lifetime of the program.
func NewSynth(opts Options) (*Synth, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Envelope == (Envelope{}) {
		opts.Envelope = LiveEnvelope
	}
	op := &oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   opts.BufferSize,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.AudioUnavailable, "Audio output could not be initialized.")
	}
	<-readyChan
	if err := otoCtx.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.AudioUnavailable, "Audio output could not be initialized.")
	}

	s := &Synth{
		otoCtx:  otoCtx,
		mixer:   NewMixer(opts.SampleRate, channelCount, opts.Envelope, opts.Wave),
		running: true,
	}
	if opts.Volume > 0 {
		s.mixer.SetVolume(opts.Volume)
	}

	// Start the audio stream
	s.player = otoCtx.NewPlayer(&synthReader{synth: s})
	s.player.Play()

	logrus.WithFields(logrus.Fields{
		"component":   "audio",
		"sample_rate": opts.SampleRate,
		"wave":        opts.Wave.String(),
	}).Info("audio output started")

	return s, nil
}

// synthReader implements io.Reader for continuous audio generation
type synthReader struct {
	synth *Synth
}

func (r *synthReader) Read(buf []byte) (int, error) {
	s := r.synth
	s.mu.Lock()
	defer s.mu.Unlock()

	numSamples := len(buf) / (channelCount * bitDepth)
	if cap(s.scratch) < numSamples*channelCount {
		s.scratch = make([]float32, numSamples*channelCount)
	}
	frames := s.scratch[:numSamples*channelCount]
	if s.running {
		s.mixer.Render(frames)
	} else {
		clear(frames)
	}

	for i, v := range frames {
		sampleInt := ToInt16(v)
		buf[i*bitDepth] = byte(sampleInt)
		buf[i*bitDepth+1] = byte(sampleInt >> 8)
	}
	return numSamples * channelCount * bitDepth, nil
}

// PlayNote schedules a note on the audio clock.
func (s *Synth) PlayNote(frequencyHz, startTime float64) {
	s.mixer.PlayNote(frequencyHz, startTime)
}

// CurrentTime returns the audio clock in seconds.
func (s *Synth) CurrentTime() float64 {
	return s.mixer.CurrentTime()
}

// AllNotesOff silences every sounding note.
func (s *Synth) AllNotesOff() {
	s.mixer.AllNotesOff()
}

// SetVolume sets the master volume (0.0 - 1.0)
func (s *Synth) SetVolume(vol float64) {
	s.mixer.SetVolume(vol)
}

// Resume restarts a suspended device.
func (s *Synth) Resume() error {
	if err := s.otoCtx.Resume(); err != nil {
		return apperr.Wrap(err, apperr.AudioUnavailable, "Audio output could not be resumed.")
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

// Close silences the synthesizer and suspends the device.
func (s *Synth) Close() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	// As of oto v3.4 players are released by the garbage collector.
	return s.otoCtx.Suspend()
}
