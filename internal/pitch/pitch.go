// Package pitch holds the core musical data model: pitch classes, chords
// and diatonic scales, shared by every stage of the inference pipeline.
package pitch

import (
	"fmt"
	"math"
)

// AnchorHz is the frequency of pitch class 0 in octave 0. The source this
// system was distilled from names pitch class 0 "A" (55Hz, A1), not C, so
// that is the anchor used throughout: chroma extraction, HMM templates and
// the canonical scale-root ordering all key off it.
var AnchorHz = 55.0

// Class is a pitch class in 0..11, counted up from the anchor (A=0).
type Class int

const (
	A Class = iota
	ASharp
	B
	C
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
)

// NumClasses is the size of the pitch-class alphabet.
const NumClasses = 12

var names = [NumClasses]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

func (c Class) String() string {
	return names[Norm(int(c))]
}

// Norm reduces an arbitrary integer to 0..11.
func Norm(n int) int {
	n %= NumClasses
	if n < 0 {
		n += NumClasses
	}
	return n
}

// Add returns the pitch class n semitones above c, wrapping mod 12.
func (c Class) Add(n int) Class {
	return Class(Norm(int(c) + n))
}

// Freq returns the frequency in Hz of this pitch class in the given octave,
// anchored per AnchorHz: f(b,o) = AnchorHz * 2^((12*o+b)/12).
func (c Class) Freq(octave int) float64 {
	bin := 12*octave + int(c)
	return AnchorHz * math.Pow(2, float64(bin)/12.0)
}

// Quality distinguishes a major from a minor triad.
type Quality int

const (
	Major Quality = iota
	Minor
)

func (q Quality) String() string {
	if q == Major {
		return "major"
	}
	return "minor"
}

// thirdInterval is the semitone distance from root to third for each quality.
func (q Quality) thirdInterval() int {
	if q == Major {
		return 4
	}
	return 3
}

// Chord is a root pitch class plus a quality, one of the 24 canonical
// triads the HMM decodes over.
type Chord struct {
	Root    Class
	Quality Quality
}

// NumChords is the total number of (root, quality) pairs.
const NumChords = NumClasses * 2

// Index returns the canonical 0..23 index of this chord: 2*root+qualityBit.
func (c Chord) Index() int {
	qb := 0
	if c.Quality == Minor {
		qb = 1
	}
	return 2*int(c.Root) + qb
}

// ChordFromIndex inverts Index.
func ChordFromIndex(i int) Chord {
	i = ((i % NumChords) + NumChords) % NumChords
	q := Major
	if i%2 == 1 {
		q = Minor
	}
	return Chord{Root: Class(i / 2), Quality: q}
}

// Intervals returns the triad's pitch-class set {root, root+q, root+7}.
func (c Chord) Intervals() [3]Class {
	return [3]Class{
		c.Root,
		c.Root.Add(c.Quality.thirdInterval()),
		c.Root.Add(7),
	}
}

// Contains reports whether pc is one of the chord's three tones.
func (c Chord) Contains(pc Class) bool {
	for _, n := range c.Intervals() {
		if n == pc {
			return true
		}
	}
	return false
}

func (c Chord) String() string {
	return fmt.Sprintf("%s %s", c.Root, c.Quality)
}

// majorScaleOffsets are the seven diatonic degrees of a major scale.
var majorScaleOffsets = [7]int{0, 2, 4, 5, 7, 9, 11}

// Scale is a major-mode diatonic scale transposed to Root.
type Scale struct {
	Root Class
}

// Notes returns the seven pitch classes of this scale.
func (s Scale) Notes() [7]Class {
	var out [7]Class
	for i, off := range majorScaleOffsets {
		out[i] = s.Root.Add(off)
	}
	return out
}

// Contains reports whether pc is a member of the scale.
func (s Scale) Contains(pc Class) bool {
	for _, n := range s.Notes() {
		if n == pc {
			return true
		}
	}
	return false
}

func (s Scale) String() string {
	return s.Root.String()
}
