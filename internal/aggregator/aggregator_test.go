package aggregator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schollz/accompanist/internal/chroma"
	"github.com/schollz/accompanist/internal/pitch"
)

const sampleRate = 44100.0

func tone(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func silentBlock(n int) []float64 {
	return make([]float64, n)
}

func TestSilenceResetsState(t *testing.T) {
	a := New(sampleRate, 200, chroma.DefaultParams)
	a.Process(tone(pitch.C.Freq(4), 1024), true)
	r := a.Process(silentBlock(1024), false)
	assert.False(t, r.Ready)
	assert.Equal(t, 0, a.count)
}

func TestWarmupGuardRequiresThreeFrames(t *testing.T) {
	a := New(sampleRate, 200, chroma.DefaultParams)
	block := tone(pitch.C.Freq(4), 1024)

	r1 := a.Process(block, true) // beat: c=1
	assert.False(t, r1.Ready)

	r2 := a.Process(block, false) // merge: c=2
	assert.False(t, r2.Ready)

	r3 := a.Process(block, false) // merge: c=3, decode now allowed
	assert.True(t, r3.Ready)
}

func TestFIFOCapsAtWindow(t *testing.T) {
	a := New(sampleRate, 200, chroma.DefaultParams)
	block := tone(pitch.C.Freq(4), 512)

	for i := 0; i < maxWindow+10; i++ {
		a.Process(block, true)
		a.Process(block, false)
		a.Process(block, false)
	}
	assert.LessOrEqual(t, len(a.fifo), maxWindow)
}

func TestBeatPushesNewObservation(t *testing.T) {
	a := New(sampleRate, 200, chroma.DefaultParams)
	block := tone(pitch.C.Freq(4), 1024)

	a.Process(block, true)
	a.Process(block, false)
	a.Process(block, false)
	n1 := len(a.fifo)

	a.Process(block, true) // new beat pushes another observation
	n2 := len(a.fifo)
	assert.Equal(t, n1+1, n2)
}
