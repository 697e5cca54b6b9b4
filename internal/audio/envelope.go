package audio

import "math"

// Envelope is the gain-over-time shape of one note: a linear attack from
// Floor to Peak, then an exponential decay that reaches Floor at Release.
// The note is silent from Release on.
type Envelope struct {
	Peak    float64 // gain at the end of the attack
	Attack  float64 // seconds
	Release float64 // seconds from note start until silence
	Floor   float64 // gain at both ends of the curve, > 0
}

// LiveEnvelope is the voice used for playback.
var LiveEnvelope = Envelope{
	Peak:    0.5,
	Attack:  0.01,
	Release: 0.2,
	Floor:   0.001,
}

// WithPeak returns a copy of e with a different peak gain.
func (e Envelope) WithPeak(peak float64) Envelope {
	e.Peak = peak
	return e
}

// Gain returns the envelope value t seconds after note start.
func (e Envelope) Gain(t float64) float64 {
	if t < 0 || t >= e.Release || e.Peak <= 0 {
		return 0
	}
	floor := e.Floor
	if floor <= 0 || floor > e.Peak {
		floor = math.Min(0.001, e.Peak)
	}
	if t < e.Attack {
		return floor + (e.Peak-floor)*t/e.Attack
	}
	decay := e.Release - e.Attack
	if decay <= 0 {
		return 0
	}
	// Same curve as an exponential ramp: Peak * (Floor/Peak)^((t-A)/(R-A)).
	return e.Peak * math.Pow(floor/e.Peak, (t-e.Attack)/decay)
}
