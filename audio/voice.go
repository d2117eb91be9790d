package audio

import "math"

// envelope timings in seconds; short attack avoids clicks, the release tail
// keeps note-offs from popping
const (
	attackSec  = 0.01
	releaseSec = 0.05
)

// voice is one sounding note: a sine oscillator with an attack/release
// envelope. Mutated only from the stream callback
type voice struct {
	phase    float64
	phaseInc float64
	position int
	sustain  int // samples before release begins
	total    int // samples including release tail
}

// newVoice creates a voice for the given MIDI pitch and note length
func newVoice(pitch int, durationSamples int, rate int) *voice {
	freq := midiToFreq(pitch)
	release := int(releaseSec * float64(rate))
	return &voice{
		phaseInc: freq / float64(rate),
		sustain:  durationSamples,
		total:    durationSamples + release,
	}
}

// midiToFreq converts a MIDI note number to Hz (A4 = 69 = 440 Hz)
func midiToFreq(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}

// sample produces the next mono sample, 0 once the voice has finished
func (v *voice) sample(rate int) float64 {
	if v.position >= v.total {
		return 0
	}

	val := math.Sin(2 * math.Pi * v.phase)
	v.phase += v.phaseInc
	if v.phase >= 1.0 {
		v.phase -= 1.0
	}

	attackSamples := int(attackSec * float64(rate))
	gain := 1.0
	if v.position < attackSamples && attackSamples > 0 {
		gain = float64(v.position) / float64(attackSamples)
	} else if v.position >= v.sustain {
		gain = float64(v.total-v.position) / float64(v.total-v.sustain)
	}

	v.position++
	return val * gain
}

// done reports whether the voice has played out including its release tail
func (v *voice) done() bool {
	return v.position >= v.total
}
