package audioio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Player is a Source backed by a decoded WAV file. It feeds the whole file
// to the callback in fixed-size blocks, pacing delivery to simulate a live
// device's real-time cadence — grounded on the teacher's
// getbpm.Length WAV-decoding recipe (format validation, ReadInfo,
// FwdToPCM), reused here to exercise the pipeline without a live capture
// device.
type Player struct {
	sampleRate int
	channels   int
	blockSize  int

	samples []float32 // interleaved, normalized to [-1, 1]
	stopCh  chan struct{}
}

// NewPlayer decodes filename eagerly and prepares a Player with the given
// block size (in frames per channel).
func NewPlayer(filename string, blockSize int) (*Player, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", filename)
	}
	d.ReadInfo()

	if d.SampleRate == 0 {
		return nil, fmt.Errorf("invalid sample rate: 0")
	}
	if d.NumChans == 0 {
		return nil, fmt.Errorf("invalid channel count: 0")
	}

	if !d.WasPCMAccessed() && d.PCMChunk == nil {
		if err := d.FwdToPCM(); err != nil {
			return nil, fmt.Errorf("locate PCM: %w", err)
		}
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode PCM: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}
	full := 1 << uint(bitDepth-1)

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = clampUnit(float32(v) / float32(full))
	}

	return &Player{
		sampleRate: int(d.SampleRate),
		channels:   int(d.NumChans),
		blockSize:  blockSize,
		samples:    samples,
		stopCh:     make(chan struct{}),
	}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }
func (p *Player) Channels() int   { return p.channels }

// Start delivers the decoded file to callback in blockSize-frame chunks,
// sleeping between blocks so the whole run takes roughly as long as the
// source audio, then returns once the file is exhausted or Stop is called.
func (p *Player) Start(callback func(samples []float32)) error {
	frameBytes := p.channels
	blockLen := p.blockSize * frameBytes
	if blockLen <= 0 {
		return fmt.Errorf("invalid block size: %d", p.blockSize)
	}
	interval := time.Duration(float64(p.blockSize) / float64(p.sampleRate) * float64(time.Second))

	for offset := 0; offset < len(p.samples); offset += blockLen {
		select {
		case <-p.stopCh:
			return nil
		default:
		}

		end := offset + blockLen
		if end > len(p.samples) {
			end = len(p.samples)
		}
		callback(p.samples[offset:end])

		if interval > 0 {
			time.Sleep(interval)
		}
	}
	return nil
}

// Stop interrupts an in-progress Start.
func (p *Player) Stop() error {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
	return nil
}

// clampUnit guards against decoder rounding pushing a sample marginally
// outside [-1, 1], which would otherwise destabilize the chroma extractor's
// silence-floor comparison.
func clampUnit(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
