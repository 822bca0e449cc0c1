package chroma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schollz/accompanist/internal/pitch"
)

const sampleRate = 44100.0

func sineAt(freq float64, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func mix(signals ...[]float64) []float64 {
	n := len(signals[0])
	out := make([]float64, n)
	for _, s := range signals {
		for i, v := range s {
			out[i] += v
		}
	}
	return out
}

func TestExtractSilence(t *testing.T) {
	samples := make([]float64, 2048)
	v := Extract(samples, sampleRate, DefaultParams)
	assert.True(t, v.IsZero())
}

func TestExtractNormalizedUnit(t *testing.T) {
	samples := sineAt(pitch.C.Freq(4), 4096, 1.0)
	v := Extract(samples, sampleRate, DefaultParams)
	assert.False(t, v.IsZero())
	assert.InDelta(t, 1.0, v.Norm2(), 1e-6)
}

func TestExtractCMajorTonesPeakAtCEG(t *testing.T) {
	samples := mix(
		sineAt(pitch.C.Freq(4), 8192, 1.0),
		sineAt(pitch.E.Freq(4), 8192, 1.0),
		sineAt(pitch.G.Freq(4), 8192, 1.0),
	)
	v := Extract(samples, sampleRate, DefaultParams)

	peaks := map[pitch.Class]bool{pitch.C: true, pitch.E: true, pitch.G: true}
	for pc := 0; pc < pitch.NumClasses; pc++ {
		if peaks[pitch.Class(pc)] {
			continue
		}
		assert.Less(t, v[pc], v[int(pitch.C)]+0.2, "non-chord bin %d should not exceed chord tone energy by much", pc)
	}
}
