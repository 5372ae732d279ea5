// Package oscillator implements the macro oscillator: a bank of
// selectable synthesis algorithms sharing one pitch/timbre/color control
// surface. Samples are 16-bit signed, pitch is expressed in 128ths of a
// semitone (MIDI note 60 = 7680), and rendering happens in small
// fixed-size blocks that the engine stitches into host-sized buffers.
package oscillator

import (
	"math"
)

// BlockSize is the native render granularity. Callers may request fewer
// samples but never more in a single Render call.
const BlockSize = 24

// calibrationRate is the sample rate the phase tables assume. The engine
// runs at a lower rate and compensates with a fixed pitch offset, the
// same way the hardware heritage of these algorithms did.
const calibrationRate = 96000.0

// Shape selects the synthesis algorithm.
type Shape int

const (
	ShapeCSaw Shape = iota
	ShapeMorph
	ShapeSawShaper
	ShapePulseShaper
	ShapeFoldedSine
	ShapeBuzz
	ShapeSquareSync
	ShapeSawSync
	ShapeTripleSaw
	ShapeTripleSquare
	ShapeTripleSine
	ShapeSwarm
	ShapeFM
	ShapeFeedbackFM
	ShapeNoise

	ShapeCount
)

// ShapeNames holds the display name for each shape, indexed by Shape.
// Hosts show these in preset lists and enum parameters.
var ShapeNames = [ShapeCount]string{
	"CSAW",
	"MORPH",
	"SAW<",
	"SQR<",
	"SINE^",
	"BUZZ",
	"SQsync",
	"SWsync",
	"3xSAW",
	"3xSQR",
	"3xSIN",
	"SWARM",
	"FM",
	"FBFM",
	"NOIS",
}

// ShapeByName returns the shape with the given display name.
func ShapeByName(name string) (Shape, bool) {
	for i, n := range ShapeNames {
		if n == name {
			return Shape(i), true
		}
	}
	return 0, false
}

const sineTableSize = 1024

var sineTable [sineTableSize + 1]int16

func init() {
	for i := range sineTable {
		sineTable[i] = int16(32767 * math.Sin(2*math.Pi*float64(i)/sineTableSize))
	}
}

// sine looks up a full-cycle sine for a 32-bit phase.
func sine(phase uint32) int32 {
	return int32(sineTable[phase>>22])
}

// MacroOscillator renders one voice worth of waveform. All state is
// value-typed; there is no allocation after construction.
type MacroOscillator struct {
	shape  Shape
	pitch  int16
	timbre int16
	color  int16

	phaseInc uint32
	phase    uint32

	// Per-algorithm state.
	subPhase   [5]uint32 // detuned stacks
	slavePhase uint32    // hard sync shapes
	modPhase   uint32    // FM modulator
	feedback   int32     // feedback FM previous output
	lpState    int32     // one-pole state for smoothed shapes
	noiseSeed  uint32
	noiseHeld  int32
	noiseAge   int
}

// New creates a macro oscillator with a deterministic initial state.
func New() *MacroOscillator {
	return &MacroOscillator{noiseSeed: 0x12345678}
}

// SetShape selects the synthesis algorithm, clamping out-of-range ids.
func (m *MacroOscillator) SetShape(s Shape) {
	if s < 0 {
		s = 0
	}
	if s >= ShapeCount {
		s = ShapeCount - 1
	}
	m.shape = s
}

// Shape returns the currently selected algorithm.
func (m *MacroOscillator) Shape() Shape {
	return m.shape
}

// SetParameters sets the two timbre controls, each in [0, 32767].
func (m *MacroOscillator) SetParameters(timbre, color int16) {
	if timbre < 0 {
		timbre = 0
	}
	if color < 0 {
		color = 0
	}
	m.timbre = timbre
	m.color = color
}

// SetPitch sets the oscillator pitch in 128ths of a semitone and
// recomputes the phase increment.
func (m *MacroOscillator) SetPitch(pitch int16) {
	m.pitch = pitch
	m.phaseInc = pitchToIncrement(float64(pitch))
}

// pitchToIncrement converts a pitch in 128ths of a semitone to a 32-bit
// phase increment at the calibration rate.
func pitchToIncrement(pitch float64) uint32 {
	note := pitch / 128.0
	freq := 440.0 * math.Exp2((note-69.0)/12.0)
	inc := freq / calibrationRate * 4294967296.0
	if inc >= 2147483647.0 {
		inc = 2147483647.0
	}
	return uint32(inc)
}

// Strike resets phase and transient state, marking the start of a note.
func (m *MacroOscillator) Strike() {
	m.phase = 0
	m.slavePhase = 0
	m.modPhase = 0
	m.feedback = 0
	m.lpState = 0
	// Spread the stack phases so detuned shapes do not start in perfect
	// alignment, which sounds like a flanged mono oscillator.
	for i := range m.subPhase {
		m.subPhase[i] = uint32(i) * 0x30000000
	}
}

// Render fills out[:n] with samples. A non-zero byte in sync hard-resets
// the master phase at that sample. n must not exceed BlockSize.
func (m *MacroOscillator) Render(sync []uint8, out []int16, n int) {
	if n > BlockSize {
		n = BlockSize
	}
	if n > len(out) {
		n = len(out)
	}

	switch m.shape {
	case ShapeCSaw:
		m.renderCSaw(sync, out, n)
	case ShapeMorph:
		m.renderMorph(sync, out, n)
	case ShapeSawShaper:
		m.renderSawShaper(sync, out, n)
	case ShapePulseShaper:
		m.renderPulseShaper(sync, out, n)
	case ShapeFoldedSine:
		m.renderFoldedSine(sync, out, n)
	case ShapeBuzz:
		m.renderBuzz(sync, out, n)
	case ShapeSquareSync, ShapeSawSync:
		m.renderSync(sync, out, n)
	case ShapeTripleSaw, ShapeTripleSquare, ShapeTripleSine:
		m.renderTriple(sync, out, n)
	case ShapeSwarm:
		m.renderSwarm(sync, out, n)
	case ShapeFM, ShapeFeedbackFM:
		m.renderFM(sync, out, n)
	case ShapeNoise:
		m.renderNoise(out, n)
	}
}

// tick advances the master phase, honoring external sync pulses.
func (m *MacroOscillator) tick(sync []uint8, i int) {
	if i < len(sync) && sync[i] != 0 {
		m.phase = 0
	} else {
		m.phase += m.phaseInc
	}
}

func saw(phase uint32) int32 {
	return int32(phase>>16) - 32768
}

func square(phase, pw uint32) int32 {
	if phase < pw {
		return 32767
	}
	return -32767
}

func triangle(phase uint32) int32 {
	v := int32(phase >> 15) // 0..131071
	if v > 65535 {
		v = 131071 - v
	}
	return v - 32768
}

func clip16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// renderCSaw is a sawtooth with a timbre-controlled notch: the first part
// of each cycle is held at a color-controlled level, which thins out the
// low harmonics the way a high-passed reed sounds.
func (m *MacroOscillator) renderCSaw(sync []uint8, out []int16, n int) {
	notch := uint32(m.timbre) << 16 // up to half a cycle
	hold := int32(m.color) - 16384
	for i := 0; i < n; i++ {
		s := saw(m.phase)
		if m.phase < notch {
			s = hold
		}
		out[i] = clip16(s)
		m.tick(sync, i)
	}
}

// renderMorph crossfades saw → square → triangle under timbre control.
// Color sets the square segment's pulse width.
func (m *MacroOscillator) renderMorph(sync []uint8, out []int16, n int) {
	pw := 0x40000000 + uint32(m.color)<<15 // 25%..75%
	t := int32(m.timbre)
	for i := 0; i < n; i++ {
		var s int32
		if t < 16384 {
			// saw → square
			x := t * 2 // 0..32767
			s = (saw(m.phase)*(32767-x) + square(m.phase, pw)*x) >> 15
		} else {
			// square → triangle
			x := (t - 16384) * 2
			s = (square(m.phase, pw)*(32767-x) + triangle(m.phase)*x) >> 15
		}
		out[i] = clip16(s)
		m.tick(sync, i)
	}
}

// renderSawShaper bends the saw's apex point with timbre (ramp through
// asymmetric triangle) and mixes in a sub-octave square under color.
func (m *MacroOscillator) renderSawShaper(sync []uint8, out []int16, n int) {
	// Apex position in phase units; timbre 0 → near-instant rise (saw),
	// max → apex around a fifth of the cycle.
	apex := uint32(4096+int32(m.timbre)*7) << 12
	subMix := int32(m.color)
	for i := 0; i < n; i++ {
		var s int32
		if m.phase < apex {
			s = int32(uint64(m.phase)*65535/uint64(apex)) - 32768
		} else {
			rest := uint64(m.phase - apex)
			span := uint64(4294967295 - apex)
			s = 32767 - int32(rest*65535/span)
		}
		sub := square(m.subPhase[2], 1<<31)
		s = (s*(32767-subMix) + sub*subMix) >> 15
		out[i] = clip16(s)
		m.tick(sync, i)
		m.subPhase[2] += m.phaseInc >> 1
	}
}

// renderPulseShaper is a pulse wave with timbre-controlled width and a
// color-controlled one-pole smoothing that rounds the edges.
func (m *MacroOscillator) renderPulseShaper(sync []uint8, out []int16, n int) {
	// Keep the width off the extremes so the wave never degenerates to DC.
	width := uint32(0x0CCCCCCC) + uint32(m.timbre)<<16 // 5%..55% of a cycle
	coef := int32(m.color) >> 7                        // 0..255
	for i := 0; i < n; i++ {
		s := square(m.phase, width)
		// One-pole lowpass: state += (in - state) * (256-coef)/256
		m.lpState += (s - m.lpState) * (256 - coef) >> 8
		out[i] = clip16(m.lpState)
		m.tick(sync, i)
	}
}

// renderFoldedSine drives a sine into a triangle folder. Timbre sets the
// fold gain, color phase-modulates with the second harmonic.
func (m *MacroOscillator) renderFoldedSine(sync []uint8, out []int16, n int) {
	gain := 32767 + int32(m.timbre)*3
	pmDepth := int32(m.color)
	for i := 0; i < n; i++ {
		pm := uint32((sine(m.phase*2) * pmDepth) >> 4)
		s := sine(m.phase + pm)
		v := int32((int64(s) * int64(gain)) >> 15)
		// Triangle fold back into range.
		for v > 32767 || v < -32768 {
			if v > 32767 {
				v = 65534 - v
			}
			if v < -32768 {
				v = -65536 - v
			}
		}
		out[i] = int16(v)
		m.tick(sync, i)
	}
}

// renderBuzz hard-clips an overdriven sine and lowpasses the result,
// giving a bright, brassy pulse train. Timbre is drive, color darkness.
func (m *MacroOscillator) renderBuzz(sync []uint8, out []int16, n int) {
	drive := 32767 + int32(m.timbre)*7
	coef := int32(m.color) >> 7
	for i := 0; i < n; i++ {
		v := int32((int64(sine(m.phase)) * int64(drive)) >> 15)
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		m.lpState += (v - m.lpState) * (256 - coef) >> 8
		out[i] = clip16(m.lpState)
		m.tick(sync, i)
	}
}

// renderSync runs a slave oscillator hard-synced to the master. Timbre
// sets the slave ratio (1x..4x), color the slave pulse width.
func (m *MacroOscillator) renderSync(sync []uint8, out []int16, n int) {
	slaveInc := uint32(float64(m.phaseInc) * (1.0 + 3.0*float64(m.timbre)/32767.0))
	pw := 0x20000000 + uint32(m.color)<<15
	for i := 0; i < n; i++ {
		var s int32
		if m.shape == ShapeSquareSync {
			s = square(m.slavePhase, pw)
		} else {
			s = saw(m.slavePhase)
		}
		out[i] = clip16(s)

		prev := m.phase
		m.tick(sync, i)
		if m.phase < prev {
			m.slavePhase = 0 // master wrapped
		} else {
			m.slavePhase += slaveInc
		}
	}
}

// renderTriple stacks three oscillators: one at pitch and two detuned by
// timbre. Color balances the detuned pair against the center.
func (m *MacroOscillator) renderTriple(sync []uint8, out []int16, n int) {
	detune := 1.0 + float64(m.timbre)/32767.0*0.02
	incUp := uint32(float64(m.phaseInc) * detune)
	incDown := uint32(float64(m.phaseInc) / detune)
	mix := int32(m.color)
	pw := uint32(1 << 31)
	for i := 0; i < n; i++ {
		var a, b, c int32
		switch m.shape {
		case ShapeTripleSquare:
			a = square(m.phase, pw)
			b = square(m.subPhase[0], pw)
			c = square(m.subPhase[1], pw)
		case ShapeTripleSine:
			a = sine(m.phase)
			b = sine(m.subPhase[0])
			c = sine(m.subPhase[1])
		default:
			a = saw(m.phase)
			b = saw(m.subPhase[0])
			c = saw(m.subPhase[1])
		}
		s := int32((int64(a)*32767 + int64(b+c)*int64(mix)/2) / int64(32767+mix))
		out[i] = clip16(s)

		m.tick(sync, i)
		m.subPhase[0] += incUp
		m.subPhase[1] += incDown
	}
}

// renderSwarm is five detuned saws. Timbre spreads the detune, color
// tilts the mix toward the outer pair.
func (m *MacroOscillator) renderSwarm(sync []uint8, out []int16, n int) {
	spread := float64(m.timbre) / 32767.0 * 0.03
	var incs [5]uint32
	for k := 0; k < 5; k++ {
		f := 1.0 + spread*float64(k-2)/2.0
		incs[k] = uint32(float64(m.phaseInc) * f)
	}
	outer := int32(m.color)
	inner := 32767 - outer/2
	for i := 0; i < n; i++ {
		s := saw(m.phase) * inner >> 15
		s += (saw(m.subPhase[0]) + saw(m.subPhase[3])) * inner >> 16
		s += (saw(m.subPhase[1]) + saw(m.subPhase[4])) * outer >> 16
		out[i] = clip16(s * 2 / 3)

		m.tick(sync, i)
		for k := 0; k < 5; k++ {
			if k == 2 {
				continue // center voice rides the master phase
			}
			m.subPhase[k] += incs[k]
		}
	}
}

// fmRatios quantizes color to musically useful modulator ratios.
var fmRatios = [8]float64{0.5, 1, 1.5, 2, 3, 4, 6, 8}

// renderFM is two-operator phase modulation. Timbre is the modulation
// index; color picks the modulator ratio. The feedback variant feeds the
// output back into its own phase for noisier spectra.
func (m *MacroOscillator) renderFM(sync []uint8, out []int16, n int) {
	ratio := fmRatios[int(m.color)>>12]
	modInc := uint32(float64(m.phaseInc) * ratio)
	index := int32(m.timbre)
	for i := 0; i < n; i++ {
		mod := sine(m.modPhase)
		pm := uint32((mod * index) >> 2)
		if m.shape == ShapeFeedbackFM {
			pm += uint32((m.feedback * index) >> 4)
		}
		s := sine(m.phase + pm)
		m.feedback = s
		out[i] = clip16(s)

		m.tick(sync, i)
		m.modPhase += modInc
	}
}

// renderNoise is a linear congruential noise source with a timbre
// lowpass and color-controlled sample-rate decimation.
func (m *MacroOscillator) renderNoise(out []int16, n int) {
	coef := int32(m.timbre) >> 7                 // brightness
	hold := 1 + int(m.color)>>11                 // hold length 1..16
	for i := 0; i < n; i++ {
		m.noiseAge++
		if m.noiseAge >= hold {
			m.noiseAge = 0
			m.noiseSeed = m.noiseSeed*1664525 + 1013904223
			m.noiseHeld = int32(int16(m.noiseSeed >> 16))
		}
		m.lpState += (m.noiseHeld - m.lpState) * (1 + coef) >> 8
		out[i] = clip16(m.lpState)
	}
}
