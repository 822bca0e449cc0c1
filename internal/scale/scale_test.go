package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schollz/accompanist/internal/pitch"
)

func TestReduceSingleChordSuperset(t *testing.T) {
	c := pitch.Chord{Root: pitch.C, Quality: pitch.Major}
	s := Reduce([]pitch.Chord{c})
	for _, n := range c.Intervals() {
		assert.True(t, s.Contains(n), "reduced scale should contain chord tone %s", n)
	}
}

func TestReduceEmptyHistory(t *testing.T) {
	s := Reduce(nil)
	assert.Equal(t, allCandidates()[0], s)
}

func TestReduceAMinorRelativeSequence(t *testing.T) {
	// C major / A minor relative sequence: chords sharing C major / A minor
	// should reduce to a scale whose note-set is a superset of all of them.
	history := []pitch.Chord{
		{Root: pitch.A, Quality: pitch.Minor},
		{Root: pitch.D, Quality: pitch.Minor},
		{Root: pitch.E, Quality: pitch.Minor},
	}
	s := Reduce(history)
	for _, c := range history {
		for _, n := range c.Intervals() {
			assert.True(t, s.Contains(n), "scale %s should contain %s from chord %s", s, n, c)
		}
	}
}

func TestCanonicalOrderStartsAtA(t *testing.T) {
	assert.Equal(t, pitch.A, CanonicalRootOrder[0])
}
