package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/audio"
	"github.com/icco/melodygrid/internal/grid"
)

const (
	wavBitDepth  = 16
	wavFormatPCM = 1
	// WavHeaderSize is the size of the canonical PCM header.
	WavHeaderSize = 44
)

// SerializeWAV encodes interleaved float samples as a 16-bit PCM WAV file:
// RIFF header, a 16-byte fmt chunk and a single data chunk.
func SerializeWAV(samples []float32, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("wav: invalid format %d Hz x %d channels", sampleRate, channels)
	}
	if len(samples) == 0 || len(samples)%channels != 0 {
		return nil, fmt.Errorf("wav: %d samples do not form whole %d-channel frames", len(samples), channels)
	}

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(audio.ToInt16(v))
	}

	f := &memFile{buf: make([]byte, 0, WavHeaderSize+2*len(samples))}
	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("wav: write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav: finish header: %w", err)
	}
	return f.buf, nil
}

// WAV renders snap and serializes it. It waits for the render to finish and
// either returns a complete file or an apperr.ExportFailure error.
func (r *Renderer) WAV(ctx context.Context, snap grid.Snapshot, tones grid.ToneMap, bpm int) ([]byte, error) {
	var res RenderResult
	select {
	case res = <-r.RenderAsync(ctx, snap, tones, bpm):
	case <-ctx.Done():
		return nil, apperr.Wrap(ctx.Err(), apperr.ExportFailure, "WAV export was cancelled.")
	}
	if res.Err != nil {
		return nil, apperr.Wrap(res.Err, apperr.ExportFailure, "Could not render audio for WAV export.")
	}
	out, err := SerializeWAV(res.Buffer.Samples, res.Buffer.SampleRate, res.Buffer.Channels)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ExportFailure, "Could not encode the WAV file.")
	}
	return out, nil
}

// memFile is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes once the samples are written.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("memfile: invalid whence")
	}
	if next < 0 {
		return 0, errors.New("memfile: negative position")
	}
	m.pos = int(next)
	return next, nil
}
