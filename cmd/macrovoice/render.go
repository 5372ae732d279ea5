package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/abright/macrovoice/pkg/debug"
	"github.com/abright/macrovoice/pkg/engine"
	"github.com/abright/macrovoice/pkg/midi"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Bounce a note sequence to a WAV file",
	Long: `Render plays a comma-separated MIDI note sequence through the
engine offline and writes the result as a 16-bit stereo WAV file.

Examples:
  macrovoice render --notes 60,64,67 --out chord.wav
  macrovoice render --notes 48,55,60 --note-len 0.5 --set engine=SWARM --out riff.wav`,
	RunE: runRender,
}

var renderOpts struct {
	out       string
	notes     string
	noteLen   float64
	gate      float64
	tail      float64
	velocity  int
	moduleDir string
	preset    int
	params    []string
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.out, "out", "o", "out.wav", "output WAV path")
	f.StringVarP(&renderOpts.notes, "notes", "n", "60", "comma-separated MIDI note numbers")
	f.Float64Var(&renderOpts.noteLen, "note-len", 1.0, "seconds per note")
	f.Float64Var(&renderOpts.gate, "gate", 0.5, "held fraction of each note")
	f.Float64Var(&renderOpts.tail, "tail", 1.0, "seconds of release tail after the last note")
	f.IntVar(&renderOpts.velocity, "velocity", 100, "note velocity 1-127")
	f.StringVar(&renderOpts.moduleDir, "module-dir", "", "directory holding the presets folder")
	f.IntVar(&renderOpts.preset, "preset", -1, "preset index to select before rendering")
	f.StringArrayVar(&renderOpts.params, "set", nil, "parameter override as key=value (repeatable)")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	notes, err := parseNotes(renderOpts.notes)
	if err != nil {
		return err
	}
	if renderOpts.gate <= 0 || renderOpts.gate > 1 {
		return fmt.Errorf("gate must be in (0, 1], got %g", renderOpts.gate)
	}

	eng := engine.New(renderOpts.moduleDir, "", debug.Default("render"))
	if renderOpts.preset >= 0 {
		eng.SetParam("preset", strconv.Itoa(renderOpts.preset))
	}
	if err := applyOverrides(eng, renderOpts.params); err != nil {
		return err
	}

	noteFrames := int(renderOpts.noteLen * engine.SampleRate)
	gateFrames := int(renderOpts.noteLen * renderOpts.gate * engine.SampleRate)
	tailFrames := int(renderOpts.tail * engine.SampleRate)

	seq := midi.NewSequence()
	for i, note := range notes {
		seq.AddNote(i*noteFrames, gateFrames, uint8(note), uint8(renderOpts.velocity))
	}

	totalFrames := noteFrames*len(notes) + tailFrames
	samples := make([]int16, 0, totalFrames*2)
	block := make([]int16, engine.FramesPerBlock*2)

	renderSpan := func(frames int) {
		for frames > 0 {
			n := engine.FramesPerBlock
			if n > frames {
				n = frames
			}
			eng.RenderBlock(block, n)
			samples = append(samples, block[:n*2]...)
			frames -= n
		}
	}

	// Split rendering at every scheduled message so events land on
	// their exact frame, not the nearest block boundary.
	pos := 0
	for pos < totalFrames {
		end := pos + engine.FramesPerBlock
		if end > totalFrames {
			end = totalFrames
		}
		for _, tm := range seq.ForRange(pos, end) {
			renderSpan(tm.Frame - pos)
			pos = tm.Frame
			eng.OnMidi(tm.Msg[:], 0)
		}
		renderSpan(end - pos)
		pos = end
	}

	if err := writeWav(renderOpts.out, samples); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames, %.2fs)\n",
		renderOpts.out, len(samples)/2, float64(len(samples)/2)/engine.SampleRate)
	return nil
}

func parseNotes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	notes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("bad note %q: want a MIDI number 0-127", p)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func applyOverrides(eng *engine.Engine, overrides []string) error {
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("bad --set %q: want key=value", kv)
		}
		eng.SetParam(key, value)
	}
	return nil
}

func writeWav(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, engine.SampleRate, 16, 2, 1)
	defer enc.Close()

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  engine.SampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
