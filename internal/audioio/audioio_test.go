package audioio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownmixMono(t *testing.T) {
	in := []float32{0.5, -0.5, 1.0}
	out := Downmix(in, 1)
	assert.Equal(t, []float64{0.5, -0.5, 1.0}, out)
}

func TestDownmixStereoAverages(t *testing.T) {
	in := []float32{1.0, 0.0, -1.0, 0.0} // two frames, L/R
	out := Downmix(in, 2)
	assert.Equal(t, []float64{0.5, -0.5}, out)
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, float32(1.0), clampUnit(1.5))
	assert.Equal(t, float32(-1.0), clampUnit(-2.0))
	assert.Equal(t, float32(0.25), clampUnit(0.25))
}

func TestNewPlayerMissingFile(t *testing.T) {
	_, err := NewPlayer("testdata/does-not-exist.wav", 1024)
	assert.Error(t, err)
}
