// Package onset implements a block-energy novelty detector that emits a single rising edge per burst of new energy, suppressing
// re-triggers within a short cooldown window.
package onset

import (
	"math"
	"sync"
)

// Detector buffers a short history of frame energies and raises a latched
// edge whenever a rectified novelty function crosses an adaptive
// threshold. Safe for concurrent use: Process is expected to be called
// from the real-time audio callback, Take from any other goroutine.
type Detector struct {
	mu sync.Mutex

	historyLen int
	history    []float64 // recent frame L2 (root-sum-square) energies
	cooldown   int        // frames remaining before another edge can fire
	cooldownN  int        // configured cooldown length, in frames

	latched bool
}

// New creates a Detector with the given history window (number of past
// frames averaged for the adaptive floor) and cooldown (number of frames
// during which a second edge is suppressed after firing).
func New(historyLen, cooldownFrames int) *Detector {
	if historyLen < 1 {
		historyLen = 1
	}
	return &Detector{historyLen: historyLen, cooldownN: cooldownFrames}
}

// Process feeds one mono audio block's energy through the novelty
// function. Must not block: it only touches the detector's own state.
func (d *Detector) Process(block []float64) {
	energy := 0.0
	for _, s := range block {
		energy += s * s
	}
	energy = math.Sqrt(energy)

	d.mu.Lock()
	defer d.mu.Unlock()

	novelty := 0.0
	if len(d.history) > 0 {
		mean := 0.0
		for _, e := range d.history {
			mean += e
		}
		mean /= float64(len(d.history))
		variance := 0.0
		for _, e := range d.history {
			diff := e - mean
			variance += diff * diff
		}
		variance /= float64(len(d.history))
		stddev := math.Sqrt(variance)
		threshold := mean + 1.5*stddev
		if energy > threshold {
			novelty = energy - threshold
		}
	}

	d.history = append(d.history, energy)
	if len(d.history) > d.historyLen {
		d.history = d.history[1:]
	}

	if d.cooldown > 0 {
		d.cooldown--
		return
	}
	if novelty > 0 {
		d.latched = true
		d.cooldown = d.cooldownN
	}
}

// Take reads and clears the latched beat flag.
func (d *Detector) Take() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.latched
	d.latched = false
	return v
}
