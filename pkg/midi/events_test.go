package midi

import "testing"

func TestParseNoteOn(t *testing.T) {
	ev, ok := Parse([]byte{0x92, 60, 100})
	if !ok {
		t.Fatal("note on not parsed")
	}
	on, isOn := ev.(NoteOnEvent)
	if !isOn {
		t.Fatalf("expected NoteOnEvent, got %T", ev)
	}
	if on.Channel() != 2 || on.NoteNumber != 60 || on.Velocity != 100 {
		t.Errorf("unexpected fields: %s", on)
	}
}

func TestParseNoteOnZeroVelocityIsNoteOff(t *testing.T) {
	ev, ok := Parse([]byte{0x90, 64, 0})
	if !ok {
		t.Fatal("message not parsed")
	}
	if _, isOff := ev.(NoteOffEvent); !isOff {
		t.Fatalf("expected NoteOffEvent, got %T", ev)
	}
}

func TestParseNoteOff(t *testing.T) {
	ev, ok := Parse([]byte{0x80, 60, 64})
	if !ok {
		t.Fatal("note off not parsed")
	}
	off, isOff := ev.(NoteOffEvent)
	if !isOff || off.NoteNumber != 60 {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestParseControlChange(t *testing.T) {
	ev, ok := Parse([]byte{0xB0, CCModWheel, 127})
	if !ok {
		t.Fatal("CC not parsed")
	}
	cc, isCC := ev.(ControlChangeEvent)
	if !isCC || cc.Controller != CCModWheel || cc.Value != 127 {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestParsePitchBend(t *testing.T) {
	cases := []struct {
		lsb, msb byte
		want     int16
	}{
		{0x00, 0x40, 0},     // center
		{0x7F, 0x7F, 8191},  // max up
		{0x00, 0x00, -8192}, // max down
	}
	for _, c := range cases {
		ev, ok := Parse([]byte{0xE0, c.lsb, c.msb})
		if !ok {
			t.Fatalf("pitch bend %x %x not parsed", c.lsb, c.msb)
		}
		pb := ev.(PitchBendEvent)
		if pb.Value != c.want {
			t.Errorf("bend (%x,%x) = %d, want %d", c.lsb, c.msb, pb.Value, c.want)
		}
	}
}

func TestParseRejectsShortAndSystemMessages(t *testing.T) {
	if _, ok := Parse([]byte{0x90}); ok {
		t.Error("short message parsed")
	}
	if _, ok := Parse([]byte{0xF8}); ok {
		t.Error("system realtime message parsed")
	}
	if _, ok := Parse([]byte{0xD0, 12}); ok {
		t.Error("channel pressure parsed but unsupported")
	}
}
