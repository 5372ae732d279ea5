package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "macrovoice",
	Short: "Polyphonic macro-oscillator synthesizer",
	Long: `Macrovoice is a four-voice macro-oscillator synthesizer with
per-voice ADSR envelopes and state-variable filtering.

Subcommands:
  render    Bounce a note sequence to a WAV file offline
  play      Play live through the system audio device`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
