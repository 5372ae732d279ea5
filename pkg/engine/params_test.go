package engine

import (
	"math"
	"testing"
)

func TestSetClampsToDeclaredRange(t *testing.T) {
	s := NewStore()

	cases := []struct {
		id   ParamID
		in   float64
		want float64
	}{
		{ParamTimbre, 2.5, 1},
		{ParamTimbre, -0.5, 0},
		{ParamTimbre, 0.25, 0.25},
		{ParamEngine, 1e9, paramDefs[ParamEngine].Max},
		{ParamEngine, -42, 0},
		{ParamVolume, math.Inf(1), 1},
		{ParamVolume, math.Inf(-1), 0},
	}
	for _, c := range cases {
		s.Set(c.id, c.in)
		if got := s.Get(c.id); got != c.want {
			t.Errorf("Set(%v, %g) stored %g, want %g", c.id, c.in, got, c.want)
		}
	}
}

func TestApplyClampsEveryValue(t *testing.T) {
	s := NewStore()
	var values [ParamCount]float64
	for i := range values {
		values[i] = 99
	}
	s.Apply(values)
	for id := ParamID(0); id < ParamCount; id++ {
		if got, max := s.Get(id), paramDefs[id].Max; got != max {
			t.Errorf("param %s = %g after Apply, want clamped %g", paramDefs[id].Key, got, max)
		}
	}
}

func TestFormatByType(t *testing.T) {
	s := NewStore()
	s.Set(ParamEngine, 3)
	if got := s.Format(ParamEngine); got != "3" {
		t.Errorf("int param formatted as %q", got)
	}
	s.Set(ParamTimbre, 0.5)
	if got := s.Format(ParamTimbre); got != "0.5000" {
		t.Errorf("float param formatted as %q", got)
	}
}

func TestUnknownKeyIsNoOp(t *testing.T) {
	s := NewStore()
	before := s.Snapshot()
	if s.SetByKey("does_not_exist", 0.9) {
		t.Error("unknown key reported as set")
	}
	if s.Snapshot() != before {
		t.Error("unknown key mutated the store")
	}
	if _, ok := s.GetByKey("does_not_exist"); ok {
		t.Error("unknown key readable")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := NewStore()
	s.Set(ParamSustain, 0.1)
	s.Set(ParamCutoff, 0.2)
	s.Reset()
	if s.Get(ParamSustain) != 1 || s.Get(ParamCutoff) != 1 {
		t.Errorf("defaults not restored: sustain=%g cutoff=%g",
			s.Get(ParamSustain), s.Get(ParamCutoff))
	}
}

func TestClampOctave(t *testing.T) {
	cases := []struct{ in, want int }{
		{-10, -3}, {-3, -3}, {0, 0}, {3, 3}, {12, 3},
	}
	for _, c := range cases {
		if got := clampOctave(c.in); got != c.want {
			t.Errorf("clampOctave(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
