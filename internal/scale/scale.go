// Package scale narrows a decoded chord history down to the single most
// restrictive diatonic scale consistent with what has been played.
package scale

import "github.com/schollz/accompanist/internal/pitch"

// CanonicalRootOrder pins the scale-root enumeration order used when a
// tiebreak must pick "the first candidate": pitch-class index order,
// starting at the system's A anchor (§4.5, §9 Open Question).
var CanonicalRootOrder = [pitch.NumClasses]pitch.Class{
	pitch.A, pitch.ASharp, pitch.B, pitch.C, pitch.CSharp, pitch.D,
	pitch.DSharp, pitch.E, pitch.F, pitch.FSharp, pitch.G, pitch.GSharp,
}

func allCandidates() []pitch.Scale {
	out := make([]pitch.Scale, len(CanonicalRootOrder))
	for i, root := range CanonicalRootOrder {
		out[i] = pitch.Scale{Root: root}
	}
	return out
}

// Reduce walks the chord sequence from newest to oldest, accumulating the
// union of visited pitch classes and filtering the 12 major-scale
// candidates down to those whose membership is a superset of that union.
// Per §4.5: if filtering empties the set, the previous candidate set's
// first element is returned; if it narrows to one, that one is returned;
// otherwise the narrowed set becomes the new candidate set and iteration
// continues. If iteration completes with multiple survivors, the first
// (in CanonicalRootOrder) is returned.
func Reduce(history []pitch.Chord) pitch.Scale {
	candidates := allCandidates()
	if len(history) == 0 {
		return candidates[0]
	}

	seen := map[pitch.Class]bool{}
	for i := len(history) - 1; i >= 0; i-- {
		for _, n := range history[i].Intervals() {
			seen[n] = true
		}

		filtered := filterSupersets(candidates, seen)
		switch len(filtered) {
		case 0:
			return candidates[0]
		case 1:
			return filtered[0]
		default:
			candidates = filtered
		}
	}
	return candidates[0]
}

func filterSupersets(candidates []pitch.Scale, notes map[pitch.Class]bool) []pitch.Scale {
	var out []pitch.Scale
	for _, s := range candidates {
		if isSuperset(s, notes) {
			out = append(out, s)
		}
	}
	return out
}

func isSuperset(s pitch.Scale, notes map[pitch.Class]bool) bool {
	for n := range notes {
		if !s.Contains(n) {
			return false
		}
	}
	return true
}
