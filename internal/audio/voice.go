package audio

import "math"

// Voice represents a single scheduled note
type Voice struct {
	frequency float64
	start     float64 // seconds on the mixer clock
	envelope  Envelope
	wave      WaveType
}

// Sample returns the voice output at absolute time t.
func (v *Voice) Sample(t float64) float64 {
	local := t - v.start
	gain := v.envelope.Gain(local)
	if gain == 0 {
		return 0
	}
	_, phase := math.Modf(v.frequency * local)
	return generateWave(v.wave, phase) * gain
}

// done reports whether the voice is silent from t on.
func (v *Voice) done(t float64) bool {
	return t >= v.start+v.envelope.Release
}
