package engine

import (
	"github.com/abright/macrovoice/pkg/dsp/oscillator"
)

// voicePitch computes a voice's oscillator pitch in 128ths of a
// semitone: stored note, fixed calibration correction, live bend.
func (e *Engine) voicePitch(v *Voice) int16 {
	p := v.note*128 + pitchCorrection + e.bendPitch
	if p > 32767 {
		p = 32767
	}
	if p < 0 {
		p = 0
	}
	return int16(p)
}

// applyParamsToVoice pushes the current parameter table into a voice.
// Called every block for every active voice (and on note-on), so live
// parameter changes reach notes already sounding; no values are cached.
func (e *Engine) applyParamsToVoice(v *Voice) {
	v.osc.SetShape(oscillator.Shape(e.params.Get(ParamEngine)))

	timbre := int16(e.params.Get(ParamTimbre) * 32767.0)
	color := int16(e.params.Get(ParamColor) * 32767.0)
	v.osc.SetParameters(timbre, color)

	// Resonance is block-rate; cutoff is set per sample in the render
	// loop so the filter envelope can modulate it.
	v.filter.SetResonance(int16(e.params.Get(ParamResonance) * 32767.0))

	v.ampEnv.Configure(
		e.params.Get(ParamAttack),
		e.params.Get(ParamDecay),
		e.params.Get(ParamSustain),
		e.params.Get(ParamRelease))
	v.filtEnv.Configure(
		e.params.Get(ParamFAttack),
		e.params.Get(ParamFDecay),
		e.params.Get(ParamFSustain),
		e.params.Get(ParamFRelease))
}

// RenderBlock renders frames of interleaved stereo into out, which must
// hold at least frames*2 samples. The buffer is cleared first; every
// active voice is accumulated on top with saturation to the 16-bit
// range. Work is bounded by frames × active voices and allocation-free.
func (e *Engine) RenderBlock(out []int16, frames int) {
	if frames*2 > len(out) {
		frames = len(out) / 2
	}
	for i := 0; i < frames*2; i++ {
		out[i] = 0
	}

	gain := e.params.Get(ParamVolume) / MaxVoices
	fmAmount := e.params.Get(ParamFM)
	baseCutoff := e.params.Get(ParamCutoff)
	filtEnvAmount := e.params.Get(ParamFiltEnv)
	resonance := e.params.Get(ParamResonance)

	// Skip the filter entirely for voices that wouldn't be audibly
	// filtered: wide-open cutoff, no resonance, no envelope sweep.
	useFilter := baseCutoff < 0.99 || resonance > 0.01 || filtEnvAmount > 0.01

	for _, v := range e.voices {
		if !v.active {
			continue
		}

		e.applyParamsToVoice(v)

		pitch := int32(e.voicePitch(v))
		if fmAmount > 0.001 {
			pitch += int32(fmAmount * fmMaxPitch)
			if pitch > 32767 {
				pitch = 32767
			}
		}
		v.osc.SetPitch(int16(pitch))

		// The oscillator renders in its own smaller granularity;
		// accumulate sub-blocks until the host block is filled or the
		// voice retires.
		rendered := 0
		for rendered < frames {
			blockSize := oscillator.BlockSize
			if rendered+blockSize > frames {
				blockSize = frames - rendered
			}

			for i := range v.syncBuf {
				v.syncBuf[i] = 0
			}
			v.osc.Render(v.syncBuf[:], v.oscBuf[:], blockSize)

			for s := 0; s < blockSize; s++ {
				amp := v.ampEnv.Next()
				filtLevel := v.filtEnv.Next()

				// Retire the voice the moment its amplitude envelope
				// finishes an ungated release. Remaining frames keep
				// whatever the other voices mixed in.
				if !v.gate && !v.ampEnv.IsActive() {
					v.active = false
					break
				}

				sample := int32(float64(v.oscBuf[s]) * amp)

				if useFilter {
					modCutoff := baseCutoff + filtLevel*filtEnvAmount
					if modCutoff > 1.0 {
						modCutoff = 1.0
					}
					cutoff := int16(modCutoff*127.0) << 7
					v.filter.SetFrequency(cutoff)
					sample = v.filter.Process(sample)
				}

				sample = sample * int32(v.velocity) / 127

				idx := (rendered + s) * 2
				left := int32(out[idx]) + int32(float64(sample)*gain)
				right := int32(out[idx+1]) + int32(float64(sample)*gain)
				out[idx] = saturate16(left)
				out[idx+1] = saturate16(right)
			}

			if !v.active {
				break
			}
			rendered += blockSize
		}
	}
}

// saturate16 clamps a 32-bit mix accumulator to the 16-bit range.
func saturate16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
