package engine

// findFreeVoice returns the index of the first inactive voice, or, when
// every voice is sounding, the voice with the smallest age (the one
// triggered longest ago). It always returns a usable index: a new note
// is never dropped, polyphony saturation steals the oldest voice.
func findFreeVoice(voices []*Voice) int {
	for i, v := range voices {
		if !v.active {
			return i
		}
	}
	oldest := 0
	for i := 1; i < len(voices); i++ {
		if voices[i].age < voices[oldest].age {
			oldest = i
		}
	}
	return oldest
}

// findVoiceForNote resolves a note-off to the voice that should release.
// A still-gated voice wins immediately: when the same note overlaps its
// own release tail, the newly pressed voice is the one the player is
// letting go of. Failing that, the most recently triggered releasing
// match is returned, or -1 if the note isn't sounding at all.
func findVoiceForNote(voices []*Voice, note int) int {
	releasing := -1
	for i, v := range voices {
		if !v.active || v.note != note {
			continue
		}
		if v.gate {
			return i
		}
		if releasing == -1 || v.age > voices[releasing].age {
			releasing = i
		}
	}
	return releasing
}
