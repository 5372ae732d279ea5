// Package filter provides the per-voice resonant filter.
package filter

import "math"

// SVF is a two-pole state variable filter with a lowpass output, run in
// a signed 32-bit sample domain. Cutoff is addressed in 128ths of a
// semitone like oscillator pitch, resonance as a 15-bit amount. The
// coefficient math happens in the setters so the per-sample path is two
// multiplies and a handful of adds.
type SVF struct {
	sampleRate float64

	f    int32 // frequency coefficient, Q15
	damp int32 // damping coefficient, Q14

	lp int32
	bp int32
}

// NewSVF creates a state variable filter for the given sample rate.
func NewSVF(sampleRate float64) *SVF {
	s := &SVF{sampleRate: sampleRate}
	s.SetResonance(0)
	s.SetFrequency(16256) // wide open
	return s
}

// Reset clears the filter state.
func (s *SVF) Reset() {
	s.lp = 0
	s.bp = 0
}

// SetFrequency sets the cutoff in 128ths of a semitone (MIDI note 60 =
// 7680). Values are clamped to the audible range.
func (s *SVF) SetFrequency(cutoff int16) {
	if cutoff < 0 {
		cutoff = 0
	}
	note := float64(cutoff) / 128.0
	hz := 440.0 * math.Exp2((note-69.0)/12.0)
	f := 2.0 * math.Sin(math.Pi*hz/s.sampleRate)
	if f > 0.99 {
		f = 0.99
	}
	s.f = int32(f * 32767.0)
}

// SetResonance sets the resonance amount in [0, 32767]. Zero keeps the
// filter just shy of critically damped; full range rings hard without
// self-oscillating.
func (s *SVF) SetResonance(resonance int16) {
	if resonance < 0 {
		resonance = 0
	}
	damp := 1.9 - 1.82*float64(resonance)/32767.0
	s.damp = int32(damp * 16384.0) // Q14, damping spans (0,2)
}

// Process pushes one sample through the filter and returns the lowpass
// output. Products are widened to 64 bits so resonant peaks never wrap.
func (s *SVF) Process(in int32) int32 {
	s.lp += int32((int64(s.f) * int64(s.bp)) >> 15)
	hp := in - s.lp - int32((int64(s.damp)*int64(s.bp))>>14)
	s.bp += int32((int64(s.f) * int64(hp)) >> 15)
	return s.lp
}
