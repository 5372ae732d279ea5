package filter

import (
	"math"
	"testing"
)

const testSampleRate = 44100.0

// feedSine runs a sine of the given frequency through the filter and
// returns the RMS of the last half of the output.
func feedSine(s *SVF, freq float64, samples int) float64 {
	var sum float64
	half := samples / 2
	for i := 0; i < samples; i++ {
		in := int32(20000 * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate))
		out := float64(s.Process(in))
		if i >= half {
			sum += out * out
		}
	}
	return math.Sqrt(sum / float64(half))
}

func TestLowpassPassesLowAttenuatesHigh(t *testing.T) {
	// Cutoff around MIDI note 81 (~880 Hz).
	low := NewSVF(testSampleRate)
	low.SetFrequency(81 * 128)
	lowRMS := feedSine(low, 110, 8192)

	high := NewSVF(testSampleRate)
	high.SetFrequency(81 * 128)
	highRMS := feedSine(high, 8000, 8192)

	if lowRMS < 10000 {
		t.Errorf("110 Hz tone heavily attenuated below cutoff: rms=%f", lowRMS)
	}
	if highRMS > lowRMS/4 {
		t.Errorf("8 kHz tone not attenuated: rms=%f vs %f", highRMS, lowRMS)
	}
}

func TestResonanceBoostsCutoffRegion(t *testing.T) {
	flat := NewSVF(testSampleRate)
	flat.SetFrequency(69 * 128) // 440 Hz
	flat.SetResonance(0)
	flatRMS := feedSine(flat, 440, 8192)

	peaked := NewSVF(testSampleRate)
	peaked.SetFrequency(69 * 128)
	peaked.SetResonance(28000)
	peakedRMS := feedSine(peaked, 440, 8192)

	if peakedRMS <= flatRMS {
		t.Errorf("resonance did not boost cutoff region: %f <= %f", peakedRMS, flatRMS)
	}
}

func TestResetClearsState(t *testing.T) {
	s := NewSVF(testSampleRate)
	s.SetFrequency(60 * 128)
	s.SetResonance(20000)
	feedSine(s, 200, 1024)

	s.Reset()
	if out := s.Process(0); out != 0 {
		t.Errorf("filter rang after reset: %d", out)
	}
}

func TestNegativeInputsClamped(t *testing.T) {
	s := NewSVF(testSampleRate)
	s.SetFrequency(-100)
	s.SetResonance(-5)
	// A negative cutoff clamps to the bottom of the range; the filter
	// must stay finite and quiet rather than blowing up.
	for i := 0; i < 1000; i++ {
		out := s.Process(20000)
		if out > 1<<24 || out < -(1<<24) {
			t.Fatalf("filter diverged: %d", out)
		}
	}
}
