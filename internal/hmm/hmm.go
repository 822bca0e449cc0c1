// Package hmm implements the 24-state (12 roots x {major, minor})
// Gaussian-emission hidden Markov model and its Viterbi decoder, the heart
// of the chord-inference pipeline.
package hmm

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/schollz/accompanist/internal/chroma"
	"github.com/schollz/accompanist/internal/params"
	"github.com/schollz/accompanist/internal/pitch"
)

// logClamp bounds every emission log-probability, per §4.4/§7: a row that
// underflows or a NaN log-pdf must never poison a Viterbi max.
const logClamp = 1e10

// rowOffsets and rowBoosts encode the transition matrix's musical
// affinities: tonic self-loop, relative major/minor, parallel quality and
// circle-of-fifths neighbors, applied at these chord-index offsets from
// each row's own state.
var rowOffsets = [6]int{0, 5, 9, 10, 14, 17}
var rowBoosts = [6]float64{0.6, 0.4, 0.3, 0.5, 0.5, 0.5}

// Model is the fully-constructed decoder: one multivariate Gaussian per
// quality (rotated per root at evaluation time) and the 24x24 transition
// matrix, both fixed after New.
type Model struct {
	major, minor *distmv.Normal
	logInitial   [pitch.NumChords]float64
	logTrans     [pitch.NumChords][pitch.NumChords]float64
}

// New builds a Model from the embedded Gaussian templates, constructing
// the transition matrix once per §4.4.
func New(tmpl params.Templates) (*Model, error) {
	major, ok := distmv.NewNormal(tmpl.Major.Mean[:], symFromRowMajor(tmpl.Major.Cov), nil)
	if !ok {
		return nil, errNotPosDef("major")
	}
	minor, ok := distmv.NewNormal(tmpl.Minor.Mean[:], symFromRowMajor(tmpl.Minor.Cov), nil)
	if !ok {
		return nil, errNotPosDef("minor")
	}

	m := &Model{major: major, minor: minor}
	uniform := -math.Log(float64(pitch.NumChords))
	for i := range m.logInitial {
		m.logInitial[i] = uniform
	}
	m.logTrans = buildTransition()
	return m, nil
}

type errNotPosDef string

func (e errNotPosDef) Error() string {
	return "hmm: " + string(e) + " covariance template is not positive-definite"
}

func symFromRowMajor(flat [pitch.NumClasses * pitch.NumClasses]float64) *mat.SymDense {
	return mat.NewSymDense(pitch.NumClasses, flat[:])
}

// buildTransition constructs the 24x24 row-stochastic log-transition
// matrix exactly per spec §4.4: start from 0.2*I + 1e-3 floor, boost six
// row-relative offsets (rotated +5 for minor/odd rows) to fixed values,
// row-normalize, then log.
func buildTransition() (logA [pitch.NumChords][pitch.NumChords]float64) {
	var a [pitch.NumChords][pitch.NumChords]float64
	for i := 0; i < pitch.NumChords; i++ {
		for j := 0; j < pitch.NumChords; j++ {
			a[i][j] = 1e-3
		}
		a[i][i] += 0.2
	}

	for i := 0; i < pitch.NumChords; i++ {
		offsets := rowOffsets
		if i%2 == 1 {
			for k := range offsets {
				offsets[k] = (offsets[k] + 5) % pitch.NumChords
			}
		}
		for k, off := range offsets {
			j := (i + off) % pitch.NumChords
			a[i][j] = rowBoosts[k]
		}
	}

	for i := 0; i < pitch.NumChords; i++ {
		sum := 0.0
		for j := 0; j < pitch.NumChords; j++ {
			sum += a[i][j]
		}
		for j := 0; j < pitch.NumChords; j++ {
			logA[i][j] = math.Log(a[i][j] / sum)
		}
	}
	return logA
}

// rotateLeft shifts a 12-vector left by n positions: out[i] = v[(i+n)%12].
// This realigns an absolute-pitch-class observation so that index 0 lines
// up with a chord rooted at pitch class n, matching the template's
// root-at-index-0 convention (§4.4, §9 "polymorphic observation rotation").
func rotateLeft(v chroma.Vector, n int) [pitch.NumClasses]float64 {
	var out [pitch.NumClasses]float64
	for i := range out {
		out[i] = v[pitch.Norm(i+n)]
	}
	return out
}

// emissionLogProb evaluates state i's Gaussian log-pdf against obs,
// rotating the observation by the state's root and clamping per §4.4/§7.
func (m *Model) emissionLogProb(i int, obs chroma.Vector) float64 {
	chord := pitch.ChordFromIndex(i)
	rotated := rotateLeft(obs, int(chord.Root))

	var lp float64
	switch chord.Quality {
	case pitch.Major:
		lp = m.major.LogProb(rotated[:])
	default:
		lp = m.minor.LogProb(rotated[:])
	}
	if math.IsNaN(lp) {
		return -logClamp
	}
	if lp > logClamp {
		return logClamp
	}
	if lp < -logClamp {
		return -logClamp
	}
	return lp
}

// ChordInference pairs a chord hypothesis with the root-rotated observation
// it was scored against, for the visualization's full-distribution display.
type ChordInference struct {
	Chord pitch.Chord
	Y     [pitch.NumClasses]float64
}

// InferAll scores every one of the 24 chord states against a single
// observation and returns them ranked best-first by emission log-prob,
// the grounding being the original's infer_all: "all candidate chords,
// sorted by descending log-pdf" rather than the state sequence Viterbi
// commits to.
func (m *Model) InferAll(obs chroma.Vector) []ChordInference {
	out := make([]ChordInference, pitch.NumChords)
	logProb := make([]float64, pitch.NumChords)
	for i := 0; i < pitch.NumChords; i++ {
		chord := pitch.ChordFromIndex(i)
		out[i] = ChordInference{
			Chord: chord,
			Y:     rotateLeft(obs, int(chord.Root)),
		}
		logProb[i] = m.emissionLogProb(i, obs)
	}
	idx := make([]int, pitch.NumChords)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return logProb[idx[a]] > logProb[idx[b]]
	})
	ranked := make([]ChordInference, pitch.NumChords)
	for rank, i := range idx {
		ranked[rank] = out[i]
	}
	return ranked
}

// Decode runs the Viterbi recurrence over the observation sequence and
// returns the most-likely chord-index path, one entry per observation.
// Ties are broken by strict `>` so the first-encountered maximum wins,
// deterministically (§4.4).
func (m *Model) Decode(observations []chroma.Vector) []int {
	t := len(observations)
	if t == 0 {
		return nil
	}

	delta := make([][pitch.NumChords]float64, t)
	psi := make([][pitch.NumChords]int, t)

	for i := 0; i < pitch.NumChords; i++ {
		delta[0][i] = m.logInitial[i] + m.emissionLogProb(i, observations[0])
		psi[0][i] = 0
	}

	for step := 1; step < t; step++ {
		for i := 0; i < pitch.NumChords; i++ {
			best := math.Inf(-1)
			bestJ := 0
			for j := 0; j < pitch.NumChords; j++ {
				v := delta[step-1][j] + m.logTrans[j][i]
				if v > best {
					best = v
					bestJ = j
				}
			}
			delta[step][i] = best + m.emissionLogProb(i, observations[step])
			psi[step][i] = bestJ
		}
	}

	last := t - 1
	best := math.Inf(-1)
	bestI := 0
	for i := 0; i < pitch.NumChords; i++ {
		if delta[last][i] > best {
			best = delta[last][i]
			bestI = i
		}
	}

	path := make([]int, t)
	path[last] = bestI
	for step := last; step > 0; step-- {
		path[step-1] = psi[step][path[step]]
	}
	return path
}

// DecodeChords is Decode with the result translated into Chord values.
func (m *Model) DecodeChords(observations []chroma.Vector) []pitch.Chord {
	path := m.Decode(observations)
	out := make([]pitch.Chord, len(path))
	for i, idx := range path {
		out[i] = pitch.ChordFromIndex(idx)
	}
	return out
}
