// Package engine implements the polyphonic voice engine: voice
// allocation and stealing, per-voice envelopes and filtering, the
// shared parameter store, the preset bank, and the block renderer that
// turns MIDI events into interleaved 16-bit stereo audio.
//
// The engine exposes two entry points intended for a host's control
// thread (OnMidi, SetParam, GetParam) and its audio thread
// (RenderBlock). The host is expected to serialize calls per instance;
// the engine itself takes no locks and performs no allocation after
// New returns.
package engine

import (
	"encoding/json"
	"path/filepath"
	"strconv"

	"github.com/abright/macrovoice/pkg/debug"
	"github.com/abright/macrovoice/pkg/dsp/oscillator"
	"github.com/abright/macrovoice/pkg/midi"
)

const (
	// SampleRate is the engine's fixed output rate.
	SampleRate = 44100
	// FramesPerBlock is the host's nominal callback size. RenderBlock
	// accepts any frame count; this is the size hosts typically use.
	FramesPerBlock = 128
	// MaxVoices is the polyphony limit.
	MaxVoices = 4

	// pitchCorrection compensates for the oscillator's phase tables
	// being calibrated for 96kHz while the engine runs at 44.1kHz:
	// 12 * 128 * log2(96000/44100), rounded to 1724.
	pitchCorrection = 1724

	// bendRange is the pitch-bend span in semitones, fixed by
	// convention rather than configurable.
	bendRange = 2.0

	// fmMaxPitch is the FM amount's reach in 128ths of a semitone
	// (12 semitones at full depth).
	fmMaxPitch = 1536
)

// Engine is one synthesizer instance.
type Engine struct {
	moduleDir string
	params    *Store
	octave    int

	voices       [MaxVoices]*Voice
	voiceCounter uint64

	bank          *Bank
	currentPreset int
	presetName    string

	// bendPitch is the live pitch-bend offset in 128ths of a semitone,
	// folded into every voice's pitch each block.
	bendPitch int

	log *debug.Logger
}

// New creates an engine instance. moduleDir locates the presets
// subdirectory; defaultsJSON optionally overrides create-time parameter
// defaults using the same keys as preset files. Both may be empty.
// Preset loading happens here, once, off the render path.
func New(moduleDir, defaultsJSON string, log *debug.Logger) *Engine {
	if log == nil {
		log = debug.Discard()
	}
	e := &Engine{
		moduleDir:  moduleDir,
		params:     NewStore(),
		presetName: "Init",
		log:        log,
	}
	for i := range e.voices {
		e.voices[i] = newVoice(SampleRate)
	}

	if defaultsJSON != "" {
		if p, err := ParsePreset([]byte(defaultsJSON), "Init"); err == nil {
			e.params.Apply(p.Values)
			e.octave = p.OctaveTranspose
		} else {
			log.Warnf("ignoring defaults blob: %v", err)
		}
	}

	if moduleDir != "" {
		e.bank = LoadBank(filepath.Join(moduleDir, "presets"), log)
	} else {
		e.bank = &Bank{}
	}
	if e.bank.Len() > 0 {
		e.applyPreset(0)
	}
	return e
}

// Voices exposes the voice pool for inspection. Hosts and tests read
// it; mutation belongs to the engine.
func (e *Engine) Voices() []*Voice {
	return e.voices[:]
}

// Params returns the live parameter store.
func (e *Engine) Params() *Store {
	return e.params
}

// Error reports the instance's load failure, if any. The engine has no
// fatal conditions: every malformed input is clamped, skipped or
// ignored, so this is always empty.
func (e *Engine) Error() string {
	return ""
}

// OnMidi handles one raw MIDI message from the host. Unknown or
// malformed messages are ignored.
func (e *Engine) OnMidi(msg []byte, source int) {
	ev, ok := midi.Parse(msg)
	if !ok {
		return
	}

	switch ev := ev.(type) {
	case midi.NoteOnEvent:
		e.noteOn(e.transpose(int(ev.NoteNumber)), int(ev.Velocity))
	case midi.NoteOffEvent:
		e.noteOff(e.transpose(int(ev.NoteNumber)))
	case midi.ControlChangeEvent:
		e.controlChange(ev.Controller, ev.Value)
	case midi.PitchBendEvent:
		e.pitchBend(ev.NormalizedValue())
	}
}

// transpose applies the octave transpose to an incoming note number,
// clamped to the MIDI range.
func (e *Engine) transpose(note int) int {
	note += e.octave * 12
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	return note
}

func (e *Engine) noteOn(note, velocity int) {
	vi := findFreeVoice(e.voices[:])
	v := e.voices[vi]
	e.voiceCounter++
	v.noteOn(note, velocity, e.voiceCounter)
	e.applyParamsToVoice(v)
	v.osc.SetPitch(e.voicePitch(v))
}

func (e *Engine) noteOff(note int) {
	vi := findVoiceForNote(e.voices[:], note)
	if vi >= 0 {
		e.voices[vi].noteOff()
	}
}

func (e *Engine) controlChange(controller, value uint8) {
	switch controller {
	case midi.CCModWheel:
		e.params.Set(ParamFM, float64(value)/127.0)
	case midi.CCVolume:
		e.params.Set(ParamVolume, float64(value)/127.0)
	case midi.CCAllNotesOff:
		for _, v := range e.voices {
			if v.active && v.gate {
				v.noteOff()
			}
		}
	case midi.CCAllSoundOff:
		for _, v := range e.voices {
			v.kill()
		}
	}
}

func (e *Engine) pitchBend(normalized float64) {
	e.bendPitch = int(normalized * bendRange * 128.0)
	// Re-pitch sounding voices immediately rather than waiting for the
	// next block boundary.
	for _, v := range e.voices {
		if v.active {
			v.osc.SetPitch(e.voicePitch(v))
		}
	}
}

// applyPreset overwrites the live parameter table with the preset at
// index. Out-of-range indices are a no-op.
func (e *Engine) applyPreset(index int) {
	p, ok := e.bank.Get(index)
	if !ok {
		return
	}
	e.currentPreset = index
	e.presetName = p.Name
	e.params.Apply(p.Values)
	e.octave = p.OctaveTranspose
}

// selectPreset kills every voice before applying, so held notes don't
// keep sounding with parameters from the previous preset.
func (e *Engine) selectPreset(index int) {
	if _, ok := e.bank.Get(index); !ok {
		return
	}
	for _, v := range e.voices {
		v.kill()
	}
	e.applyPreset(index)
}

// SetParam sets a parameter by its string key. Unknown keys and
// unparseable values are silently ignored; out-of-range values clamp.
func (e *Engine) SetParam(key, value string) {
	switch key {
	case "state":
		e.restoreState(value)
		return
	case "octave_transpose":
		if n, err := strconv.Atoi(value); err == nil {
			e.octave = clampOctave(n)
		}
		return
	case "preset":
		if n, err := strconv.Atoi(value); err == nil {
			e.selectPreset(n)
		}
		return
	case "engine":
		// Accept a shape display name or a numeric index.
		if shape, ok := oscillator.ShapeByName(value); ok {
			e.params.Set(ParamEngine, float64(shape))
			return
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			e.params.Set(ParamEngine, f)
		}
		return
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		e.params.SetByKey(key, f)
	}
}

// GetParam returns a parameter's formatted value by string key.
// Enumerable values return their display name for UI consumption.
func (e *Engine) GetParam(key string) (string, bool) {
	switch key {
	case "name":
		return "Macro", true
	case "octave_transpose":
		return strconv.Itoa(e.octave), true
	case "preset":
		return strconv.Itoa(e.currentPreset), true
	case "preset_count":
		return strconv.Itoa(e.bank.Len()), true
	case "preset_name":
		return e.presetName, true
	case "engine", "engine_name":
		return oscillator.ShapeNames[e.currentShape()], true
	case "state":
		return e.stateJSON(), true
	case "chain_params":
		return e.chainParamsJSON(), true
	}
	return e.params.GetByKey(key)
}

// currentShape returns the selected shape, clamped.
func (e *Engine) currentShape() oscillator.Shape {
	s := oscillator.Shape(e.params.Get(ParamEngine))
	if s < 0 {
		s = 0
	}
	if s >= oscillator.ShapeCount {
		s = oscillator.ShapeCount - 1
	}
	return s
}

// stateJSON serializes the full instance state: every parameter plus
// the active preset index and octave transpose.
func (e *Engine) stateJSON() string {
	state := make(map[string]interface{}, ParamCount+2)
	state["preset"] = e.currentPreset
	state["octave_transpose"] = e.octave
	for i := range paramDefs {
		def := &paramDefs[i]
		if def.Type == TypeInt {
			state[def.Key] = int(e.params.Get(def.ID))
		} else {
			state[def.Key] = e.params.Get(def.ID)
		}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// restoreState applies a state snapshot: the preset is applied first so
// saved parameter values land on top of it as user tweaks.
func (e *Engine) restoreState(blob string) {
	var state map[string]float64
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		e.log.Warnf("ignoring malformed state: %v", err)
		return
	}

	if idx, ok := state["preset"]; ok {
		e.applyPreset(int(idx))
	}
	if oct, ok := state["octave_transpose"]; ok {
		e.octave = clampOctave(int(oct))
	}
	for i := range paramDefs {
		if v, ok := state[paramDefs[i].Key]; ok {
			e.params.Set(paramDefs[i].ID, v)
		}
	}
}

// chainParam describes one entry of the host-facing parameter metadata.
type chainParam struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Options []string `json:"options,omitempty"`
}

// chainParamsJSON describes every parameter for host UI discovery. The
// engine selector is exposed as an enum carrying all shape names.
func (e *Engine) chainParamsJSON() string {
	params := make([]chainParam, 0, ParamCount+1)
	params = append(params, chainParam{
		Key:     "engine",
		Name:    "Algorithm",
		Type:    "enum",
		Options: oscillator.ShapeNames[:],
	})
	for i := range paramDefs {
		def := &paramDefs[i]
		if def.ID == ParamEngine {
			continue
		}
		min, max := def.Min, def.Max
		typ := "float"
		if def.Type == TypeInt {
			typ = "int"
		}
		params = append(params, chainParam{
			Key: def.Key, Name: def.Name, Type: typ, Min: &min, Max: &max,
		})
	}
	octMin, octMax := -3.0, 3.0
	params = append(params, chainParam{
		Key: "octave_transpose", Name: "Octave", Type: "int", Min: &octMin, Max: &octMax,
	})

	data, err := json.Marshal(params)
	if err != nil {
		return "[]"
	}
	return string(data)
}
