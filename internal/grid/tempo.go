package grid

import "time"

const (
	MinTempo     = 40
	MaxTempo     = 240
	DefaultTempo = 120

	// StepsPerBeat is the number of grid columns per quarter note.
	StepsPerBeat = 4
)

// ClampTempo limits bpm to the supported control range.
func ClampTempo(bpm int) int {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}

// ValidTempo reports whether bpm lies in the control range.
func ValidTempo(bpm int) bool {
	return bpm >= MinTempo && bpm <= MaxTempo
}

// StepSeconds is the length of one sixteenth note, (60/bpm)/4. Live playback,
// WAV rendering and the MIDI tempo event all derive their timing from it.
func StepSeconds(bpm int) float64 {
	return 60.0 / float64(bpm) / StepsPerBeat
}

// StepInterval is StepSeconds as a time.Duration for timers.
func StepInterval(bpm int) time.Duration {
	return time.Duration(StepSeconds(bpm) * float64(time.Second))
}

// MicrosecondsPerBeat is the MIDI tempo value for bpm, rounded down.
func MicrosecondsPerBeat(bpm int) uint32 {
	return uint32(60_000_000 / bpm)
}
