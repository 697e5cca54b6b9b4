package audio

import "math"

// WaveType represents different oscillator wave shapes
type WaveType int

const (
	WaveTriangle WaveType = iota
	WaveSine
	WaveSquare
	WaveSawtooth
)

// ParseWave maps a config name to a WaveType.
func ParseWave(name string) (WaveType, bool) {
	switch name {
	case "triangle", "":
		return WaveTriangle, true
	case "sine":
		return WaveSine, true
	case "square":
		return WaveSquare, true
	case "sawtooth", "saw":
		return WaveSawtooth, true
	}
	return WaveTriangle, false
}

func (w WaveType) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSawtooth:
		return "sawtooth"
	default:
		return "triangle"
	}
}

// generateWave returns the oscillator value for a phase in [0, 1).
func generateWave(waveType WaveType, phase float64) float64 {
	switch waveType {
	case WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case WaveSquare:
		if phase < 0.5 {
			return 0.8
		}
		return -0.8
	case WaveSawtooth:
		return 2*phase - 1
	default:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	}
}

// ToInt16 converts a float sample to signed 16-bit PCM. The sample is clamped
// to [-1, 1]; negative values scale by 32768 and positive by 32767 so that
// both ends fit without overflow.
func ToInt16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	if v < 0 {
		return int16(v * 32768)
	}
	return int16(v * 32767)
}
