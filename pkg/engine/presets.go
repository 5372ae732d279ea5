package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abright/macrovoice/pkg/debug"
	"github.com/abright/macrovoice/pkg/dsp/oscillator"
)

const (
	// MaxPresets bounds the bank; files beyond the cap are ignored.
	MaxPresets = 64
	// PresetExt is the preset file extension.
	PresetExt = ".macro"
)

// Preset is a named, complete snapshot of every parameter value plus
// the octave transpose. Presets are immutable once loaded.
type Preset struct {
	Name            string
	Values          [ParamCount]float64
	OctaveTranspose int
}

// presetFile mirrors the on-disk JSON. Pointer fields distinguish an
// absent key from an explicit zero so defaults can be synthesized.
type presetFile struct {
	Name            string          `json:"name"`
	Engine          json.RawMessage `json:"engine"`
	Timbre          *float64        `json:"timbre"`
	Color           *float64        `json:"color"`
	Attack          *float64        `json:"attack"`
	Decay           *float64        `json:"decay"`
	Sustain         *float64        `json:"sustain"`
	Release         *float64        `json:"release"`
	FM              *float64        `json:"fm"`
	Cutoff          *float64        `json:"cutoff"`
	Resonance       *float64        `json:"resonance"`
	FiltEnv         *float64        `json:"filt_env"`
	FAttack         *float64        `json:"f_attack"`
	FDecay          *float64        `json:"f_decay"`
	FSustain        *float64        `json:"f_sustain"`
	FRelease        *float64        `json:"f_release"`
	Volume          *float64        `json:"volume"`
	OctaveTranspose *float64        `json:"octave_transpose"`
}

// ParsePreset decodes one preset file. Missing fields take the engine's
// create-time defaults, so every loaded preset is a complete snapshot.
// fallbackName names presets whose file omits the name field.
func ParsePreset(data []byte, fallbackName string) (Preset, error) {
	var pf presetFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return Preset{}, fmt.Errorf("parse preset: %w", err)
	}

	p := Preset{Name: pf.Name}
	if p.Name == "" {
		p.Name = fallbackName
	}
	for i := range paramDefs {
		p.Values[i] = paramDefs[i].Default
	}

	if len(pf.Engine) > 0 {
		p.Values[ParamEngine] = parseEngineValue(pf.Engine)
	}

	assign := func(id ParamID, v *float64) {
		if v != nil {
			p.Values[id] = *v
		}
	}
	assign(ParamTimbre, pf.Timbre)
	assign(ParamColor, pf.Color)
	assign(ParamAttack, pf.Attack)
	assign(ParamDecay, pf.Decay)
	assign(ParamSustain, pf.Sustain)
	assign(ParamRelease, pf.Release)
	assign(ParamFM, pf.FM)
	assign(ParamCutoff, pf.Cutoff)
	assign(ParamResonance, pf.Resonance)
	assign(ParamFiltEnv, pf.FiltEnv)
	assign(ParamFAttack, pf.FAttack)
	assign(ParamFDecay, pf.FDecay)
	assign(ParamFSustain, pf.FSustain)
	assign(ParamFRelease, pf.FRelease)
	assign(ParamVolume, pf.Volume)

	if pf.OctaveTranspose != nil {
		p.OctaveTranspose = clampOctave(int(*pf.OctaveTranspose))
	}
	return p, nil
}

// parseEngineValue accepts either a shape display name or a numeric
// index. Unknown names fall back to shape 0.
func parseEngineValue(raw json.RawMessage) float64 {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		if shape, ok := oscillator.ShapeByName(name); ok {
			return float64(shape)
		}
		return 0
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num
	}
	return 0
}

// Bank is the ordered, fixed-capacity preset collection, loaded once at
// engine creation and read-only thereafter.
type Bank struct {
	presets []Preset
}

// LoadBank reads every preset file from dir in ascending lexicographic
// filename order, so a numeric filename prefix controls list order.
// Files that fail to parse are logged and skipped; a missing directory
// yields an empty bank, not an error.
func LoadBank(dir string, log *debug.Logger) *Bank {
	b := &Bank{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Infof("no presets directory: %s", dir)
		return b
	}

	// os.ReadDir returns entries sorted by filename.
	for _, entry := range entries {
		if len(b.presets) >= MaxPresets {
			break
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), PresetExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("skipping preset %s: %v", entry.Name(), err)
			continue
		}
		fallback := fmt.Sprintf("Preset %d", len(b.presets))
		p, err := ParsePreset(data, fallback)
		if err != nil {
			log.Warnf("skipping preset %s: %v", entry.Name(), err)
			continue
		}
		b.presets = append(b.presets, p)
	}

	log.Infof("loaded %d presets", len(b.presets))
	return b
}

// Len returns the number of loaded presets.
func (b *Bank) Len() int {
	return len(b.presets)
}

// Get returns the preset at index i.
func (b *Bank) Get(i int) (Preset, bool) {
	if i < 0 || i >= len(b.presets) {
		return Preset{}, false
	}
	return b.presets[i], true
}
