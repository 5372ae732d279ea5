package engine

import (
	"github.com/abright/macrovoice/pkg/dsp/envelope"
	"github.com/abright/macrovoice/pkg/dsp/filter"
	"github.com/abright/macrovoice/pkg/dsp/oscillator"
)

// Voice is one slot of the polyphony pool: an oscillator, two
// envelopes, a filter and lifecycle state. Voices are allocated once at
// engine creation and recycled by flag flips; nothing on the render
// path allocates.
type Voice struct {
	osc     *oscillator.MacroOscillator
	ampEnv  *envelope.ADSR
	filtEnv *envelope.ADSR
	filter  *filter.SVF

	// Scratch buffers sized to the oscillator's native granularity.
	oscBuf  [oscillator.BlockSize]int16
	syncBuf [oscillator.BlockSize]uint8

	note     int
	velocity int
	active   bool
	// gate is true while the note is physically held. A voice with
	// gate false and active true is fading through its release tail.
	gate bool
	age  uint64
}

func newVoice(sampleRate float64) *Voice {
	return &Voice{
		osc:     oscillator.New(),
		ampEnv:  envelope.New(sampleRate),
		filtEnv: envelope.New(sampleRate),
		filter:  filter.NewSVF(sampleRate),
	}
}

// noteOn retriggers the voice for a new note. age orders voices for
// oldest-first stealing.
func (v *Voice) noteOn(note, velocity int, age uint64) {
	v.note = note
	v.velocity = velocity
	v.active = true
	v.gate = true
	v.age = age
	v.osc.Strike()
	v.ampEnv.Trigger()
	v.filtEnv.Trigger()
}

// noteOff drops the gate and lets both envelopes fade. The renderer
// deactivates the voice once the amplitude envelope reaches idle.
func (v *Voice) noteOff() {
	v.gate = false
	v.ampEnv.Release()
	v.filtEnv.Release()
}

// kill silences the voice immediately, bypassing the release tail.
// Used on preset switches so held notes don't sound with mismatched
// parameters.
func (v *Voice) kill() {
	v.active = false
	v.gate = false
	v.ampEnv.Reset()
	v.filtEnv.Reset()
}

// Active reports whether the voice is contributing to the mix.
func (v *Voice) Active() bool {
	return v.active
}

// Note returns the MIDI note the voice is (or was last) sounding.
func (v *Voice) Note() int {
	return v.note
}

// Gate reports whether the note is still physically held.
func (v *Voice) Gate() bool {
	return v.gate
}

// Age returns the voice's trigger ordinal; larger means more recent.
func (v *Voice) Age() uint64 {
	return v.age
}
