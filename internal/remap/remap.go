// Package remap quantizes a performer's raw note events against the
// currently inferred chord or scale, under one of three modes.
package remap

import (
	"github.com/schollz/accompanist/internal/pitch"
)

// Mode selects how raw notes are quantized.
type Mode int

const (
	// ModeChord snaps a note down by at most 3 semitones to the nearest
	// chord tone; if none is in that window the note passes unchanged.
	ModeChord Mode = iota
	// ModeNearest snaps a note to the nearest diatonic degree of the
	// current scale, within the note's own octave.
	ModeNearest
	// ModeTranspose chromatically offsets a note by the scale's root,
	// within the note's own octave.
	ModeTranspose
)

// nearestDiatonicStep maps each of the 12 chromatic positions to a diatonic
// step of a major scale rooted at 0 (§4.6): diatonic positions map to
// themselves, the other five move up one semitone to the next step.
var nearestDiatonicStep = [pitch.NumClasses]int{0, 2, 2, 4, 4, 5, 7, 7, 9, 9, 11, 11}

// Remapper owns the remapping history (last emitted mapped note per raw
// key, so note-offs can find their matching note-on) and the latest
// inferred chord/scale it quantizes against.
type Remapper struct {
	mode    Mode
	chord   pitch.Chord
	scale   pitch.Scale
	history [128]int
}

// New creates a Remapper in the given mode with no chord/scale yet set.
func New(mode Mode) *Remapper {
	return &Remapper{mode: mode}
}

// SetMode changes the active remapping mode (e.g. on an inbound
// visualization-socket SoloMode frame).
func (r *Remapper) SetMode(m Mode) {
	r.mode = m
}

// Mode returns the active remapping mode.
func (r *Remapper) Mode() Mode {
	return r.mode
}

// SetChord updates the chord hypothesis the Remapper quantizes against.
func (r *Remapper) SetChord(c pitch.Chord) {
	r.chord = c
}

// SetScale updates the scale hypothesis the Remapper quantizes against.
func (r *Remapper) SetScale(s pitch.Scale) {
	r.scale = s
}

// NoteOn computes the mapped note for a raw note-on event, records it in
// the history table (so the matching note-off can be resolved), and
// returns it.
func (r *Remapper) NoteOn(raw uint8) uint8 {
	mapped := r.mapNote(raw)
	r.history[raw] = int(mapped)
	return mapped
}

// NoteOff returns the mapped note previously recorded for this raw key, so
// a note-off releases exactly the note the matching note-on sounded.
func (r *Remapper) NoteOff(raw uint8) uint8 {
	return uint8(r.history[raw])
}

func (r *Remapper) mapNote(raw uint8) uint8 {
	switch r.mode {
	case ModeChord:
		return r.mapChord(raw)
	case ModeNearest:
		return r.mapNearest(raw)
	case ModeTranspose:
		return r.mapTranspose(raw)
	default:
		return raw
	}
}

// mapChord snaps raw down by at most 3 semitones to the nearest chord
// tone; the search window is asymmetric — downward only — matching the
// system this was distilled from (§4.6, §9 Open Question: kept, not
// symmetrized). If no chord tone falls in [raw-3, raw], raw passes through
// unchanged.
func (r *Remapper) mapChord(raw uint8) uint8 {
	lo := int(raw) - 3
	if lo < 0 {
		lo = 0
	}
	for candidate := int(raw); candidate >= lo; candidate-- {
		if r.chord.Contains(pitch.ClassOf(candidate)) {
			return uint8(candidate)
		}
	}
	return raw
}

// mapNearest snaps raw's chromatic position, within its own octave, to a
// diatonic step via nearestDiatonicStep (non-diatonic positions move up
// one semitone), then offsets by the scale's root.
func (r *Remapper) mapNearest(raw uint8) uint8 {
	pos := pitch.Norm(int(raw))
	base := pitch.OctaveBase(int(raw))
	step := nearestDiatonicStep[pos]
	return uint8(base + step + int(r.scale.Root))
}

// mapTranspose chromatically offsets raw's position within its own octave
// by the scale's root.
func (r *Remapper) mapTranspose(raw uint8) uint8 {
	base := pitch.OctaveBase(int(raw))
	pos := pitch.Norm(int(raw))
	return uint8(base + pos + int(r.scale.Root))
}
