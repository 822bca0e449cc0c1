package onset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func quiet(n int) []float64 {
	return make([]float64, n)
}

func loud(n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp
	}
	return out
}

func TestDetectorFiresOnBurst(t *testing.T) {
	d := New(8, 4)
	for i := 0; i < 10; i++ {
		d.Process(quiet(64))
	}
	assert.False(t, d.Take(), "no edge expected during steady quiet")

	d.Process(loud(64, 1.0))
	assert.True(t, d.Take(), "expected a rising edge on sudden energy burst")
}

func TestDetectorSuppressesRetrigger(t *testing.T) {
	d := New(8, 4)
	for i := 0; i < 10; i++ {
		d.Process(quiet(64))
	}
	d.Process(loud(64, 1.0))
	assert.True(t, d.Take())

	// Within the cooldown window, continued loud energy should not latch
	// a second edge.
	fired := false
	for i := 0; i < 3; i++ {
		d.Process(loud(64, 1.0))
		if d.Take() {
			fired = true
		}
	}
	assert.False(t, fired, "cooldown should suppress re-triggers")
}

func TestTakeClearsLatch(t *testing.T) {
	d := New(8, 4)
	for i := 0; i < 10; i++ {
		d.Process(quiet(64))
	}
	d.Process(loud(64, 1.0))
	assert.True(t, d.Take())
	assert.False(t, d.Take(), "latch must clear after Take")
}
