package engine

import "testing"

func makeVoices(n int) []*Voice {
	voices := make([]*Voice, n)
	for i := range voices {
		voices[i] = newVoice(SampleRate)
	}
	return voices
}

func TestFindFreeVoicePrefersInactive(t *testing.T) {
	voices := makeVoices(4)
	voices[0].active = true
	voices[1].active = true

	vi := findFreeVoice(voices)
	if voices[vi].active {
		t.Errorf("allocated an active voice (index %d) while free voices exist", vi)
	}
}

func TestFindFreeVoiceStealsOldest(t *testing.T) {
	voices := makeVoices(4)
	for i, v := range voices {
		v.active = true
		v.age = uint64(10 + i)
	}
	voices[2].age = 3 // triggered longest ago

	if vi := findFreeVoice(voices); vi != 2 {
		t.Errorf("stole voice %d, want oldest voice 2", vi)
	}
}

func TestFindFreeVoiceAllInactive(t *testing.T) {
	voices := makeVoices(4)
	vi := findFreeVoice(voices)
	if voices[vi].active {
		t.Errorf("voice %d unexpectedly active", vi)
	}
}

func TestFindVoiceForNotePrefersGated(t *testing.T) {
	voices := makeVoices(4)
	// Voice 0: note 60 fading out. Voice 2: note 60 still held.
	voices[0].active = true
	voices[0].note = 60
	voices[0].gate = false
	voices[0].age = 5
	voices[2].active = true
	voices[2].note = 60
	voices[2].gate = true
	voices[2].age = 1

	if vi := findVoiceForNote(voices, 60); vi != 2 {
		t.Errorf("got voice %d, want gated voice 2", vi)
	}
}

func TestFindVoiceForNoteFallsBackToNewestReleasing(t *testing.T) {
	voices := makeVoices(4)
	voices[0].active = true
	voices[0].note = 60
	voices[0].age = 1
	voices[3].active = true
	voices[3].note = 60
	voices[3].age = 7

	if vi := findVoiceForNote(voices, 60); vi != 3 {
		t.Errorf("got voice %d, want most recent releasing voice 3", vi)
	}
}

func TestFindVoiceForNoteNotFound(t *testing.T) {
	voices := makeVoices(4)
	voices[1].active = true
	voices[1].note = 64

	if vi := findVoiceForNote(voices, 60); vi != -1 {
		t.Errorf("got voice %d for a note that isn't sounding, want -1", vi)
	}
}
