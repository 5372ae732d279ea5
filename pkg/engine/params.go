package engine

import (
	"strconv"

	"github.com/abright/macrovoice/pkg/dsp/oscillator"
)

// ParamID indexes the flat parameter table.
type ParamID int

const (
	ParamEngine ParamID = iota
	ParamTimbre
	ParamColor
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamFM
	ParamCutoff
	ParamResonance
	ParamFiltEnv
	ParamFAttack
	ParamFDecay
	ParamFSustain
	ParamFRelease
	ParamVolume

	ParamCount
)

// ParamType declares how a parameter's value is interpreted and shown.
type ParamType int

const (
	TypeFloat ParamType = iota
	TypeInt
)

// ParamDef describes one slot of the parameter table: its stable string
// key, display name, type, bounds and create-time default. Both the
// string-keyed host path and the index-keyed render path consult this
// single table.
type ParamDef struct {
	Key     string
	Name    string
	Type    ParamType
	ID      ParamID
	Min     float64
	Max     float64
	Default float64
}

var paramDefs = [ParamCount]ParamDef{
	{Key: "engine", Name: "Engine", Type: TypeInt, ID: ParamEngine, Min: 0, Max: float64(oscillator.ShapeCount - 1), Default: 0},
	{Key: "timbre", Name: "Timbre", Type: TypeFloat, ID: ParamTimbre, Min: 0, Max: 1, Default: 0.5},
	{Key: "color", Name: "Color", Type: TypeFloat, ID: ParamColor, Min: 0, Max: 1, Default: 0.5},
	{Key: "attack", Name: "Attack", Type: TypeFloat, ID: ParamAttack, Min: 0, Max: 1, Default: 0},
	{Key: "decay", Name: "Decay", Type: TypeFloat, ID: ParamDecay, Min: 0, Max: 1, Default: 0.5},
	{Key: "sustain", Name: "Sustain", Type: TypeFloat, ID: ParamSustain, Min: 0, Max: 1, Default: 1},
	{Key: "release", Name: "Release", Type: TypeFloat, ID: ParamRelease, Min: 0, Max: 1, Default: 0.3},
	{Key: "fm", Name: "FM", Type: TypeFloat, ID: ParamFM, Min: 0, Max: 1, Default: 0},
	{Key: "cutoff", Name: "Cutoff", Type: TypeFloat, ID: ParamCutoff, Min: 0, Max: 1, Default: 1},
	{Key: "resonance", Name: "Resonance", Type: TypeFloat, ID: ParamResonance, Min: 0, Max: 1, Default: 0},
	{Key: "filt_env", Name: "Filt Env", Type: TypeFloat, ID: ParamFiltEnv, Min: 0, Max: 1, Default: 0},
	{Key: "f_attack", Name: "F.Attack", Type: TypeFloat, ID: ParamFAttack, Min: 0, Max: 1, Default: 0},
	{Key: "f_decay", Name: "F.Decay", Type: TypeFloat, ID: ParamFDecay, Min: 0, Max: 1, Default: 0.3},
	{Key: "f_sustain", Name: "F.Sustain", Type: TypeFloat, ID: ParamFSustain, Min: 0, Max: 1, Default: 0},
	{Key: "f_release", Name: "F.Release", Type: TypeFloat, ID: ParamFRelease, Min: 0, Max: 1, Default: 0.3},
	{Key: "volume", Name: "Volume", Type: TypeFloat, ID: ParamVolume, Min: 0, Max: 1, Default: 0.7},
}

// Defs returns the parameter table in declaration order.
func Defs() []ParamDef {
	return paramDefs[:]
}

// defByKey resolves a string key to its table entry.
func defByKey(key string) (*ParamDef, bool) {
	for i := range paramDefs {
		if paramDefs[i].Key == key {
			return &paramDefs[i], true
		}
	}
	return nil, false
}

// Store is the flat table of live parameter values shared by all
// voices. Every stored value is always within its declared range:
// out-of-range inputs are clamped, never rejected.
type Store struct {
	values [ParamCount]float64
}

// NewStore creates a store populated with engine defaults.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset restores every value to its create-time default.
func (s *Store) Reset() {
	for i := range paramDefs {
		s.values[i] = paramDefs[i].Default
	}
}

// Set clamps the value to the parameter's declared range and stores it.
func (s *Store) Set(id ParamID, v float64) {
	if id < 0 || id >= ParamCount {
		return
	}
	def := &paramDefs[id]
	if v < def.Min {
		v = def.Min
	}
	if v > def.Max {
		v = def.Max
	}
	s.values[id] = v
}

// Get returns the stored value.
func (s *Store) Get(id ParamID) float64 {
	if id < 0 || id >= ParamCount {
		return 0
	}
	return s.values[id]
}

// SetByKey sets a parameter by its string key, reporting whether the
// key was known. Unknown keys are a no-op.
func (s *Store) SetByKey(key string, v float64) bool {
	def, ok := defByKey(key)
	if !ok {
		return false
	}
	s.Set(def.ID, v)
	return true
}

// GetByKey returns the formatted value for a string key.
func (s *Store) GetByKey(key string) (string, bool) {
	def, ok := defByKey(key)
	if !ok {
		return "", false
	}
	return s.Format(def.ID), true
}

// Format renders a value per its declared type: integers without
// fractional digits, floats with four.
func (s *Store) Format(id ParamID) string {
	if id < 0 || id >= ParamCount {
		return ""
	}
	if paramDefs[id].Type == TypeInt {
		return strconv.Itoa(int(s.values[id]))
	}
	return strconv.FormatFloat(s.values[id], 'f', 4, 64)
}

// Snapshot copies out every value, for preset capture and state saves.
func (s *Store) Snapshot() [ParamCount]float64 {
	return s.values
}

// Apply overwrites the table wholesale, clamping each value.
func (s *Store) Apply(values [ParamCount]float64) {
	for id := ParamID(0); id < ParamCount; id++ {
		s.Set(id, values[id])
	}
}

// clampOctave bounds the octave transpose, stored outside the table
// because it is applied to note numbers rather than read per block.
func clampOctave(v int) int {
	if v < -3 {
		return -3
	}
	if v > 3 {
		return 3
	}
	return v
}
