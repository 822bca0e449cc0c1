package params

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schollz/accompanist/internal/pitch"
)

func TestLoad(t *testing.T) {
	tmpl, err := Load()
	assert.NoError(t, err)

	assert.InDelta(t, 1.0, tmpl.Major.Mean[0], 1e-9)
	assert.InDelta(t, 1.0, tmpl.Major.Mean[4], 1e-9)
	assert.InDelta(t, 1.0, tmpl.Major.Mean[7], 1e-9)

	assert.InDelta(t, 1.0, tmpl.Minor.Mean[3], 1e-9)

	n := pitch.NumClasses
	assert.InDelta(t, 1.0, tmpl.Major.Cov[0*n+0], 1e-9)
	assert.InDelta(t, 0.2, tmpl.Major.Cov[1*n+1], 1e-9)
	assert.InDelta(t, 0.8, tmpl.Major.Cov[0*n+7], 1e-9)
	assert.InDelta(t, tmpl.Major.Cov[7*n+0], tmpl.Major.Cov[0*n+7], 1e-9)
}
