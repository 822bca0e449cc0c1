// Package chroma extracts a 12-dimensional pitch-class energy vector from a
// buffer of mono audio samples, using a per-bin Goertzel-style correlation
// rather than a full FFT.
package chroma

import (
	"math"

	"github.com/schollz/accompanist/internal/pitch"
)

// silenceL1 is the L1-energy floor below which a block is considered
// silent; below it the extractor returns the zero vector.
const silenceL1 = 0.1

// Params configures the octave range summed into each chroma bin.
type Params struct {
	LowOctave   int
	OctaveCount int
}

// DefaultParams matches the documented configuration defaults (§6):
// octaves=5, low_octave=0.
var DefaultParams = Params{LowOctave: 0, OctaveCount: 5}

// Vector is a 12-dimensional non-negative pitch-class energy vector. A
// zero Vector stands for a silent frame.
type Vector [pitch.NumClasses]float64

// Norm2 returns the Euclidean (L2) norm of v.
func (v Vector) Norm2() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalized returns v scaled to unit L2 norm, or the zero vector
// unchanged if v is (numerically) zero.
func (v Vector) Normalized() Vector {
	n := v.Norm2()
	if n == 0 {
		return Vector{}
	}
	var out Vector
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

// IsZero reports whether v is exactly the zero vector (the silence marker).
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Extract computes the chroma vector for a block of mono samples at sample
// rate R, per spec §4.1: for each pitch class and each octave in
// [low, low+count), a windowed Goertzel-style correlation centered on
// f_k = AnchorHz * 2^((12o+p)/12), window length tied to one semitone's
// period. Moduli are summed over octaves into each bin, then the 12-vector
// is L2-normalized. Blocks with L1 energy below the silence floor yield the
// zero vector.
func Extract(samples []float64, sampleRate float64, p Params) Vector {
	l1 := 0.0
	for _, s := range samples {
		l1 += math.Abs(s)
	}
	if l1 < silenceL1 {
		return Vector{}
	}

	n := len(samples)
	var out Vector
	semitoneRatio := math.Pow(2, 1.0/12.0) - 1

	for pc := 0; pc < pitch.NumClasses; pc++ {
		var sum float64
		for o := p.LowOctave; o < p.LowOctave+p.OctaveCount; o++ {
			fk := pitch.Class(pc).Freq(o)
			nk := sampleRate / (semitoneRatio * fk)
			if nk > float64(n) {
				nk = float64(n)
			}
			sum += goertzelModulus(samples, sampleRate, fk, nk)
		}
		out[pc] = sum
	}
	return out.Normalized()
}

// goertzelModulus evaluates the modulus of the windowed complex
// correlation at frequency fk over a window of length nk samples, centered
// in the buffer, per spec §4.1's exact recipe.
func goertzelModulus(samples []float64, sampleRate, fk, nk float64) float64 {
	n := len(samples)
	windowLen := int(nk)
	start := (n - windowLen) / 2
	if start < 0 {
		start = 0
	}

	var realSum, imagSum float64
	for j := 0; j < windowLen; j++ {
		idx := start + j
		if idx < 0 || idx >= n {
			continue
		}
		amp := samples[idx] / nk
		phase := -2 * math.Pi * fk * (float64(j) + math.Floor(nk/2) - float64(n)/2) / sampleRate
		sin, cos := math.Sincos(phase)
		realSum += amp * cos
		imagSum += amp * sin
	}
	return math.Hypot(realSum, imagSum)
}
