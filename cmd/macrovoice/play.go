package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rakyll/portmidi"
	"github.com/spf13/cobra"

	"github.com/abright/macrovoice/pkg/debug"
	"github.com/abright/macrovoice/pkg/engine"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live through the system audio device",
	Long: `Play opens the system audio device and runs the engine in real
time. Without a MIDI device or control server there is nothing to
trigger notes, so at least one of --midi or --http is usually wanted.

Examples:
  macrovoice play --midi
  macrovoice play --http :8080 --module-dir ./patches`,
	RunE: runPlay,
}

var playOpts struct {
	midi      bool
	httpAddr  string
	moduleDir string
	preset    int
	params    []string
	verbose   bool
}

func init() {
	f := playCmd.Flags()
	f.BoolVar(&playOpts.midi, "midi", false, "read events from the default MIDI input device")
	f.StringVar(&playOpts.httpAddr, "http", "", "serve the control API on this address")
	f.StringVar(&playOpts.moduleDir, "module-dir", "", "directory holding the presets folder")
	f.IntVar(&playOpts.preset, "preset", -1, "preset index to select at startup")
	f.StringArrayVar(&playOpts.params, "set", nil, "parameter override as key=value (repeatable)")
	f.BoolVarP(&playOpts.verbose, "verbose", "v", false, "log engine activity")

	rootCmd.AddCommand(playCmd)
}

// synth serializes access to one engine instance. The audio callback,
// the MIDI reader and the HTTP server all run on their own goroutines;
// the engine itself takes no locks, so its host does.
type synth struct {
	mu  sync.Mutex
	eng *engine.Engine
}

func (s *synth) OnMidi(msg []byte) {
	s.mu.Lock()
	s.eng.OnMidi(msg, 0)
	s.mu.Unlock()
}

func (s *synth) SetParam(key, value string) {
	s.mu.Lock()
	s.eng.SetParam(key, value)
	s.mu.Unlock()
}

func (s *synth) GetParam(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.GetParam(key)
}

// Read renders audio on demand, making the synth an io.Reader the oto
// player pulls from. p is interleaved stereo signed 16-bit little
// endian; oto sizes it in whole frames.
func (s *synth) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	block := make([]int16, frames*2)

	s.mu.Lock()
	s.eng.RenderBlock(block, frames)
	s.mu.Unlock()

	for i, v := range block {
		p[i*2] = byte(v)
		p[i*2+1] = byte(v >> 8)
	}
	return frames * 4, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	log := debug.Discard()
	if playOpts.verbose {
		log = debug.Default("play")
	}

	s := &synth{eng: engine.New(playOpts.moduleDir, "", log)}
	if playOpts.preset >= 0 {
		s.SetParam("preset", fmt.Sprintf("%d", playOpts.preset))
	}
	if err := applyOverrides(s.eng, playOpts.params); err != nil {
		return err
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   engine.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(s)
	player.Play()
	defer player.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	defer close(done)

	if playOpts.midi {
		if err := startMidiInput(s, done); err != nil {
			return err
		}
		defer portmidi.Terminate()
	}
	if playOpts.httpAddr != "" {
		go serveControl(playOpts.httpAddr, s)
	}

	fmt.Println("playing; ctrl-c to stop")
	<-stop
	return nil
}

// startMidiInput forwards events from the default MIDI input device to
// the synth until done closes.
func startMidiInput(s *synth, done <-chan struct{}) error {
	if err := portmidi.Initialize(); err != nil {
		return fmt.Errorf("init midi: %w", err)
	}
	id := portmidi.DefaultInputDeviceID()
	if id < 0 {
		portmidi.Terminate()
		return fmt.Errorf("no MIDI input device found")
	}
	in, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		portmidi.Terminate()
		return fmt.Errorf("open midi input: %w", err)
	}

	go func() {
		defer in.Close()
		for {
			select {
			case <-done:
				return
			default:
			}
			events, err := in.Read(1024)
			if err != nil {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			for _, ev := range events {
				s.OnMidi([]byte{byte(ev.Status), byte(ev.Data1), byte(ev.Data2)})
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()
	return nil
}
