package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New("", "", nil)
}

func noteOnMsg(note, vel byte) []byte { return []byte{0x90, note, vel} }

func noteOffMsg(note byte) []byte { return []byte{0x80, note, 0} }

func ccMsg(controller, val byte) []byte { return []byte{0xB0, controller, val} }

func renderOnce(e *Engine) []int16 {
	out := make([]int16, FramesPerBlock*2)
	e.RenderBlock(out, FramesPerBlock)
	return out
}

func peak(buf []int16) int {
	max := 0
	for _, s := range buf {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

func activeCount(e *Engine) int {
	n := 0
	for _, v := range e.Voices() {
		if v.Active() {
			n++
		}
	}
	return n
}

func TestNoteOnProducesAudio(t *testing.T) {
	e := newTestEngine(t)
	e.OnMidi(noteOnMsg(60, 100), 0)

	if activeCount(e) != 1 {
		t.Fatalf("%d active voices after note on, want 1", activeCount(e))
	}
	if v := e.Voices()[0]; v.Note() != 60 || !v.Gate() {
		t.Errorf("voice state note=%d gate=%v", v.Note(), v.Gate())
	}

	// Let the attack develop across a few blocks.
	var loudest int
	for i := 0; i < 8; i++ {
		if p := peak(renderOnce(e)); p > loudest {
			loudest = p
		}
	}
	if loudest == 0 {
		t.Fatal("rendered silence for a sounding note")
	}
}

func TestSilenceWithNoVoices(t *testing.T) {
	e := newTestEngine(t)
	out := make([]int16, FramesPerBlock*2)
	for i := range out {
		out[i] = 1234 // stale data must be cleared
	}
	e.RenderBlock(out, FramesPerBlock)
	if p := peak(out); p != 0 {
		t.Errorf("idle engine rendered peak %d, want 0", p)
	}
}

func TestReleaseRetiresVoice(t *testing.T) {
	e := newTestEngine(t)
	e.SetParam("release", "0") // fastest release, ~1ms
	e.OnMidi(noteOnMsg(60, 100), 0)
	renderOnce(e)
	e.OnMidi(noteOffMsg(60), 0)

	if v := e.Voices()[0]; v.Gate() {
		t.Fatal("gate still up after note off")
	}

	for i := 0; i < 50 && activeCount(e) > 0; i++ {
		renderOnce(e)
	}
	if activeCount(e) != 0 {
		t.Fatal("voice never retired after release")
	}
	if p := peak(renderOnce(e)); p != 0 {
		t.Errorf("retired voice still contributing, peak %d", p)
	}
}

func TestVelocityZeroIsNoteOff(t *testing.T) {
	e := newTestEngine(t)
	e.OnMidi(noteOnMsg(60, 100), 0)
	e.OnMidi(noteOnMsg(60, 0), 0)
	if v := e.Voices()[0]; v.Gate() {
		t.Error("running-status note off ignored")
	}
}

func TestVoiceStealingTakesOldest(t *testing.T) {
	e := newTestEngine(t)
	for note := byte(60); note < 60+MaxVoices+1; note++ {
		e.OnMidi(noteOnMsg(note, 100), 0)
	}

	if activeCount(e) != MaxVoices {
		t.Fatalf("%d active voices, want %d", activeCount(e), MaxVoices)
	}
	notes := map[int]bool{}
	for _, v := range e.Voices() {
		notes[v.Note()] = true
	}
	if notes[60] {
		t.Error("oldest note 60 survived the steal")
	}
	if !notes[60+MaxVoices] {
		t.Error("newest note missing after the steal")
	}
}

func TestOctaveTranspose(t *testing.T) {
	e := newTestEngine(t)
	e.SetParam("octave_transpose", "2")
	e.OnMidi(noteOnMsg(60, 100), 0)
	if got := e.Voices()[0].Note(); got != 84 {
		t.Errorf("transposed note = %d, want 84", got)
	}

	// A matching note off must transpose identically to find the voice.
	e.OnMidi(noteOffMsg(60), 0)
	if e.Voices()[0].Gate() {
		t.Error("transposed note off missed its voice")
	}
}

func TestPitchBendTracksWheel(t *testing.T) {
	e := newTestEngine(t)
	e.OnMidi(noteOnMsg(60, 100), 0)

	e.OnMidi([]byte{0xE0, 0x7F, 0x7F}, 0) // full up
	if e.bendPitch <= 0 {
		t.Errorf("bend pitch = %d after full bend up", e.bendPitch)
	}
	up := e.bendPitch

	e.OnMidi([]byte{0xE0, 0x00, 0x40}, 0) // center
	if e.bendPitch != 0 {
		t.Errorf("bend pitch = %d at wheel center, want 0", e.bendPitch)
	}

	e.OnMidi([]byte{0xE0, 0x00, 0x00}, 0) // full down
	if e.bendPitch >= 0 || -e.bendPitch < up-2 {
		t.Errorf("bend pitch = %d after full bend down, want about -%d", e.bendPitch, up)
	}
}

func TestModWheelDrivesFM(t *testing.T) {
	e := newTestEngine(t)
	e.OnMidi(ccMsg(1, 127), 0)
	if got := e.Params().Get(ParamFM); got != 1 {
		t.Errorf("fm = %g after full mod wheel, want 1", got)
	}
	e.OnMidi(ccMsg(1, 0), 0)
	if got := e.Params().Get(ParamFM); got != 0 {
		t.Errorf("fm = %g after mod wheel off, want 0", got)
	}
}

func TestAllNotesOffReleasesGatedOnly(t *testing.T) {
	e := newTestEngine(t)
	e.OnMidi(noteOnMsg(60, 100), 0)
	e.OnMidi(noteOnMsg(64, 100), 0)
	e.OnMidi(noteOffMsg(64), 0) // voice 1 already releasing

	e.OnMidi(ccMsg(123, 0), 0)
	for _, v := range e.Voices() {
		if v.Gate() {
			t.Error("gated voice survived all-notes-off")
		}
	}
	// Releasing voices keep fading; all-notes-off is not a hard cut.
	if activeCount(e) == 0 {
		t.Error("all-notes-off killed voices instead of releasing them")
	}
}

func TestAllSoundOffKillsImmediately(t *testing.T) {
	e := newTestEngine(t)
	e.OnMidi(noteOnMsg(60, 100), 0)
	e.OnMidi(noteOnMsg(64, 100), 0)

	e.OnMidi(ccMsg(120, 0), 0)
	if activeCount(e) != 0 {
		t.Fatal("voices survived all-sound-off")
	}
	if p := peak(renderOnce(e)); p != 0 {
		t.Errorf("killed voices still audible, peak %d", p)
	}
}

func TestSetParamEngineByName(t *testing.T) {
	e := newTestEngine(t)
	e.SetParam("engine", "FM")
	if got, _ := e.GetParam("engine"); got != "FM" {
		t.Errorf("engine = %q after set by name", got)
	}

	e.SetParam("engine", "3")
	if got, _ := e.GetParam("engine"); got != "SQR<" {
		t.Errorf("engine = %q after set by index 3", got)
	}
}

func TestGetParamFormatting(t *testing.T) {
	e := newTestEngine(t)
	e.SetParam("timbre", "0.25")
	if got, _ := e.GetParam("timbre"); got != "0.2500" {
		t.Errorf("timbre = %q", got)
	}
	if got, _ := e.GetParam("name"); got != "Macro" {
		t.Errorf("name = %q", got)
	}
	if _, ok := e.GetParam("no_such_key"); ok {
		t.Error("unknown key answered")
	}
}

func TestStateRoundTrip(t *testing.T) {
	e1 := newTestEngine(t)
	e1.SetParam("timbre", "0.25")
	e1.SetParam("cutoff", "0.75")
	e1.SetParam("engine", "SWARM")
	e1.SetParam("octave_transpose", "-2")

	blob, ok := e1.GetParam("state")
	if !ok {
		t.Fatal("state not readable")
	}

	e2 := newTestEngine(t)
	e2.SetParam("state", blob)
	for _, key := range []string{"timbre", "cutoff", "engine", "octave_transpose"} {
		want, _ := e1.GetParam(key)
		got, _ := e2.GetParam(key)
		if got != want {
			t.Errorf("%s = %q after restore, want %q", key, got, want)
		}
	}
}

func TestStateIgnoresGarbage(t *testing.T) {
	e := newTestEngine(t)
	before, _ := e.GetParam("state")
	e.SetParam("state", "not json at all")
	after, _ := e.GetParam("state")
	if before != after {
		t.Error("malformed state mutated the engine")
	}
}

func TestChainParamsMetadata(t *testing.T) {
	e := newTestEngine(t)
	blob, ok := e.GetParam("chain_params")
	if !ok {
		t.Fatal("chain_params not readable")
	}

	var params []struct {
		Key     string   `json:"key"`
		Type    string   `json:"type"`
		Options []string `json:"options"`
	}
	if err := json.Unmarshal([]byte(blob), &params); err != nil {
		t.Fatalf("chain_params is not valid JSON: %v", err)
	}
	if params[0].Key != "engine" || params[0].Type != "enum" {
		t.Errorf("first entry = %+v, want the engine enum", params[0])
	}
	if len(params[0].Options) == 0 {
		t.Error("engine enum carries no options")
	}
	// engine enum + every table param except engine + octave transpose.
	if want := 1 + int(ParamCount) - 1 + 1; len(params) != want {
		t.Errorf("%d metadata entries, want %d", len(params), want)
	}
}

func TestDefaultsBlobOverridesCreateTimeValues(t *testing.T) {
	e := New("", `{"timbre":0.9,"octave_transpose":-1}`, nil)
	if got := e.Params().Get(ParamTimbre); got != 0.9 {
		t.Errorf("timbre = %g from defaults blob", got)
	}
	if got, _ := e.GetParam("octave_transpose"); got != "-1" {
		t.Errorf("octave_transpose = %q from defaults blob", got)
	}
}

func TestPresetSelectionKillsVoices(t *testing.T) {
	dir := t.TempDir()
	presetDir := filepath.Join(dir, "presets")
	if err := os.Mkdir(presetDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writePreset(t, presetDir, "00-init.macro", `{"name":"Init Patch","timbre":0.1}`)
	writePreset(t, presetDir, "01-lead.macro", `{"name":"Lead","timbre":0.8,"octave_transpose":1}`)

	e := New(dir, "", nil)
	if got, _ := e.GetParam("preset_count"); got != "2" {
		t.Fatalf("preset_count = %q", got)
	}
	if got, _ := e.GetParam("preset_name"); got != "Init Patch" {
		t.Errorf("initial preset name = %q", got)
	}

	e.OnMidi(noteOnMsg(60, 100), 0)
	e.SetParam("preset", "1")

	if activeCount(e) != 0 {
		t.Error("held voice survived the preset switch")
	}
	if got := e.Params().Get(ParamTimbre); got != 0.8 {
		t.Errorf("timbre = %g after preset switch, want 0.8", got)
	}
	if got, _ := e.GetParam("preset_name"); got != "Lead" {
		t.Errorf("preset name = %q after switch", got)
	}
	if got, _ := e.GetParam("octave_transpose"); got != "1" {
		t.Errorf("octave transpose = %q after switch", got)
	}

	// Out-of-range selection leaves everything alone.
	e.SetParam("preset", "9")
	if got, _ := e.GetParam("preset"); got != "1" {
		t.Errorf("preset index = %q after out-of-range select", got)
	}
}

func TestRenderBlockClampsToBufferSize(t *testing.T) {
	e := newTestEngine(t)
	e.OnMidi(noteOnMsg(60, 100), 0)
	out := make([]int16, 16)
	e.RenderBlock(out, 1000) // must not write past len(out)
}
