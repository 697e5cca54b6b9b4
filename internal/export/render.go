// Package export renders a grid offline to PCM audio and WAV bytes, and
// encodes it as a Standard MIDI File.
package export

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/icco/melodygrid/internal/audio"
	"github.com/icco/melodygrid/internal/grid"
)

const (
	// ExportPeak is the envelope peak used for rendering, louder than live
	// playback.
	ExportPeak = 0.8
	// DefaultTail is the silence appended after the last column so the final
	// notes decay fully.
	DefaultTail = 1.0

	renderBlock = 4096
)

// Renderer synthesizes a whole grid into a sample buffer.
type Renderer struct {
	SampleRate int
	Channels   int
	Tail       float64 // seconds, never shorter than the envelope release
	Envelope   audio.Envelope
	Wave       audio.WaveType
}

// NewRenderer returns a stereo 44.1 kHz renderer with the live voice at
// export gain.
func NewRenderer() *Renderer {
	return &Renderer{
		SampleRate: audio.DefaultSampleRate,
		Channels:   2,
		Tail:       DefaultTail,
		Envelope:   audio.LiveEnvelope.WithPeak(ExportPeak),
		Wave:       audio.WaveTriangle,
	}
}

// Buffer is interleaved float PCM.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames.
func (b Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

func (r *Renderer) tail() float64 {
	return math.Max(r.Tail, r.Envelope.Release)
}

// Duration is the rendered length: every column plus the tail.
func (r *Renderer) Duration(cols, bpm int) float64 {
	return float64(cols)*grid.StepSeconds(bpm) + r.tail()
}

// Render synthesizes snap at bpm. Each active cell starts at
// col * StepSeconds(bpm). The context is checked between blocks.
func (r *Renderer) Render(ctx context.Context, snap grid.Snapshot, tones grid.ToneMap, bpm int) (Buffer, error) {
	if bpm <= 0 {
		return Buffer{}, fmt.Errorf("render: invalid tempo %d", bpm)
	}
	if r.SampleRate <= 0 || r.Channels <= 0 {
		return Buffer{}, fmt.Errorf("render: invalid format %d Hz x %d channels", r.SampleRate, r.Channels)
	}

	mixer := audio.NewMixer(r.SampleRate, r.Channels, r.Envelope, r.Wave)
	// Every note is scheduled up front.
	mixer.SetVoiceLimit(0)
	step := grid.StepSeconds(bpm)
	cells := snap.ActiveCells()
	for _, c := range cells {
		tone, err := tones.Tone(c.Row)
		if err != nil {
			return Buffer{}, fmt.Errorf("render: %w", err)
		}
		mixer.PlayNote(tone.Frequency, float64(c.Col)*step)
	}

	frames := int(math.Round(r.Duration(snap.Cols(), bpm) * float64(r.SampleRate)))
	samples := make([]float32, frames*r.Channels)
	for off := 0; off < len(samples); off += renderBlock * r.Channels {
		if err := ctx.Err(); err != nil {
			return Buffer{}, fmt.Errorf("render cancelled: %w", err)
		}
		end := min(off+renderBlock*r.Channels, len(samples))
		mixer.Render(samples[off:end])
	}

	logrus.WithFields(logrus.Fields{
		"component": "export",
		"notes":     len(cells),
		"frames":    frames,
		"bpm":       bpm,
	}).Debug("rendered grid")

	return Buffer{Samples: samples, SampleRate: r.SampleRate, Channels: r.Channels}, nil
}

// RenderResult is the outcome of an asynchronous render.
type RenderResult struct {
	Buffer Buffer
	Err    error
}

// RenderAsync renders on its own goroutine. The channel yields exactly one
// result.
func (r *Renderer) RenderAsync(ctx context.Context, snap grid.Snapshot, tones grid.ToneMap, bpm int) <-chan RenderResult {
	ch := make(chan RenderResult, 1)
	go func() {
		buf, err := r.Render(ctx, snap, tones, bpm)
		ch <- RenderResult{Buffer: buf, Err: err}
	}()
	return ch
}
