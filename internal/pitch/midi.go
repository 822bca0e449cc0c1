package pitch

// midiClassOffset is the standard-MIDI-to-A-anchored-index correction:
// MIDI note 9 is the real-world A0, so a note's true pitch class under
// this system's A-anchored enumeration is (note-9) mod 12. This is the
// inverse of the "+9" conversion the source this system was distilled
// from applies when turning an A-anchored chord-tone index back into a
// playable MIDI note.
const midiClassOffset = 9

// ClassOf returns the true pitch class of a raw MIDI note number, under
// this system's A-anchored enumeration (MIDI note 60 / C4 maps to C).
func ClassOf(note int) Class {
	return Class(Norm(note - midiClassOffset))
}

// OctaveBase returns the note number at the start of note's raw chromatic
// octave, i.e. note with its low 12-position zeroed: floor(note/12)*12.
// This is independent of ClassOf's A-anchor correction — it is used by the
// scale-constrained remap modes, which operate directly on a note's raw
// mod-12 position (§4.6).
func OctaveBase(note int) int {
	return note - Norm(note)
}

// MidiToNoteName renders a MIDI note number as its true pitch-class name,
// clamped to the valid MIDI range.
func MidiToNoteName(note int) string {
	if note < 0 || note > 127 {
		return "---"
	}
	return ClassOf(note).String()
}
