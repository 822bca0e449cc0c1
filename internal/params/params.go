// Package params loads the fixed Gaussian emission templates the chord HMM
// decodes against. Parameters are not trained at runtime — they ship as
// embedded JSON resources and are read once at process start.
package params

import (
	"embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/schollz/accompanist/internal/pitch"
)

//go:embed data/maj_mean.json data/maj_cov.json data/min_mean.json data/min_cov.json
var dataFS embed.FS

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Template holds one quality's canonical (root-relative) mean vector and
// row-major covariance matrix, both indexed with the chord root at
// position 0.
type Template struct {
	Mean [pitch.NumClasses]float64
	Cov  [pitch.NumClasses * pitch.NumClasses]float64
}

// Templates holds the major and minor emission templates.
type Templates struct {
	Major Template
	Minor Template
}

// Load reads and decodes the embedded templates.
func Load() (Templates, error) {
	majMean, err := loadVector("data/maj_mean.json")
	if err != nil {
		return Templates{}, fmt.Errorf("load maj_mean: %w", err)
	}
	majCov, err := loadMatrix("data/maj_cov.json")
	if err != nil {
		return Templates{}, fmt.Errorf("load maj_cov: %w", err)
	}
	minMean, err := loadVector("data/min_mean.json")
	if err != nil {
		return Templates{}, fmt.Errorf("load min_mean: %w", err)
	}
	minCov, err := loadMatrix("data/min_cov.json")
	if err != nil {
		return Templates{}, fmt.Errorf("load min_cov: %w", err)
	}
	return Templates{
		Major: Template{Mean: majMean, Cov: majCov},
		Minor: Template{Mean: minMean, Cov: minCov},
	}, nil
}

func loadVector(name string) (out [pitch.NumClasses]float64, err error) {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return out, err
	}
	var v []float64
	if err = json.Unmarshal(raw, &v); err != nil {
		return out, err
	}
	if len(v) != pitch.NumClasses {
		return out, fmt.Errorf("%s: expected %d entries, got %d", name, pitch.NumClasses, len(v))
	}
	copy(out[:], v)
	return out, nil
}

func loadMatrix(name string) (out [pitch.NumClasses * pitch.NumClasses]float64, err error) {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return out, err
	}
	var v []float64
	if err = json.Unmarshal(raw, &v); err != nil {
		return out, err
	}
	if len(v) != len(out) {
		return out, fmt.Errorf("%s: expected %d entries, got %d", name, len(out), len(v))
	}
	copy(out[:], v)
	return out, nil
}
