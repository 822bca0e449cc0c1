// Package aggregator implements the observation aggregator state machine:
// it turns a stream of mono audio blocks, gated by onset beats, into a
// bounded FIFO of beat-aligned, L2-normalized chroma observations ready
// for the HMM decoder (§4.3).
package aggregator

import (
	"github.com/schollz/accompanist/internal/chroma"
	"github.com/schollz/accompanist/internal/pitch"
)

// maxWindow is W from §3: the observation FIFO never holds more entries
// than the HMM has states.
const maxWindow = pitch.NumChords

// warmupFrames is the minimum number of frames merged into the most recent
// observation before a decode is attempted after a beat (§4.3 step 8).
const warmupFrames = 3

// silenceL1 mirrors the chroma extractor's silence floor, applied to the
// whole mono block rather than the chroma window (§4.3 step 2).
const silenceL1 = 0.1

// Aggregator owns the rolling raw-sample buffer and the observation FIFO
// exclusively; nothing else touches this state (§3 Ownership).
type Aggregator struct {
	sampleRate float64
	windowMs   int
	params     chroma.Params

	buffer []float64
	fifo   []chroma.Vector
	count  int // frames merged into the most recent observation since the last beat
}

// New creates an Aggregator for the given sample rate, rolling-buffer
// window length in milliseconds, and chroma extraction parameters.
func New(sampleRate float64, windowMs int, params chroma.Params) *Aggregator {
	return &Aggregator{sampleRate: sampleRate, windowMs: windowMs, params: params}
}

// Result is what one audio callback produces: whether the FIFO is ready to
// decode, and (if so) the current observation window, oldest first.
type Result struct {
	Ready        bool
	Observations []chroma.Vector
}

// Process runs one audio-callback's worth of the §4.3 state machine:
// down-mix is assumed already done by the caller (mono in); silence
// resets everything; otherwise the block is folded into the rolling
// buffer, a chroma vector is computed, and it is either pushed as a new
// observation (on a beat) or merged into the latest one by running mean.
func (a *Aggregator) Process(mono []float64, beat bool) Result {
	energy := 0.0
	for _, s := range mono {
		energy += absF(s)
	}
	if energy < silenceL1 {
		a.buffer = nil
		a.fifo = []chroma.Vector{{}}
		a.count = 0
		return Result{}
	}

	a.buffer = append(a.buffer, mono...)
	maxLen := int(a.sampleRate * float64(a.windowMs) / 1000.0)
	if len(a.buffer) > maxLen {
		a.buffer = a.buffer[len(a.buffer)-maxLen:]
	}

	v := chroma.Extract(a.buffer, a.sampleRate, a.params).Normalized()

	if beat || len(a.fifo) == 0 {
		a.fifo = append(a.fifo, v)
		a.count = 1
		if len(a.fifo) > maxWindow {
			a.fifo = a.fifo[1:]
		}
	} else {
		last := a.fifo[len(a.fifo)-1]
		merged := mergeRunningMean(last, v, a.count)
		a.fifo[len(a.fifo)-1] = merged.Normalized()
		a.count++
	}

	if a.count < warmupFrames {
		return Result{}
	}

	out := make([]chroma.Vector, len(a.fifo))
	copy(out, a.fifo)
	return Result{Ready: true, Observations: out}
}

// mergeRunningMean folds v into last as a running mean on the unit sphere:
// last*c + v, where c is the number of frames already folded into last.
func mergeRunningMean(last, v chroma.Vector, c int) chroma.Vector {
	var out chroma.Vector
	for i := range out {
		out[i] = last[i]*float64(c) + v[i]
	}
	return out
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
