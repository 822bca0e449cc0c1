// Command accompanist runs the real-time chord-following pipeline: audio
// intake, onset-gated chroma aggregation, HMM chord decoding, diatonic
// scale reduction, and note remapping, with a local visualization socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/accompanist/internal/aggregator"
	"github.com/schollz/accompanist/internal/audioio"
	"github.com/schollz/accompanist/internal/bus"
	"github.com/schollz/accompanist/internal/chroma"
	"github.com/schollz/accompanist/internal/hmm"
	"github.com/schollz/accompanist/internal/noteio"
	"github.com/schollz/accompanist/internal/onset"
	"github.com/schollz/accompanist/internal/params"
	"github.com/schollz/accompanist/internal/pitch"
	"github.com/schollz/accompanist/internal/remap"
	"github.com/schollz/accompanist/internal/scale"
	"github.com/schollz/accompanist/internal/viz"
)

func main() {
	var wavFile string
	var audioDevice string
	var vizPort int
	var oscPort int
	var midiOutDevice string
	var midiInDevice string
	var blockSize int
	var windowMs int
	var octaves int
	var lowOctave int
	var maxBuffer int
	var anchorHz float64
	var remapMode string
	var disableOutput bool
	var debugLog string

	flag.StringVar(&wavFile, "wav", "", "WAV file to feed through the pipeline in place of a live device")
	flag.StringVar(&audioDevice, "audio-device", "", "Live audio input device name (reserved for a future non-file Source)")
	flag.IntVar(&vizPort, "viz-port", 1234, "Port for the visualization TCP server")
	flag.IntVar(&oscPort, "osc-port", 57130, "OSC port for the /beat pulse")
	flag.StringVar(&midiOutDevice, "midi-out", "", "MIDI output device name (substring match); empty disables note output")
	flag.StringVar(&midiInDevice, "midi-in", "", "MIDI input device name (substring match); empty disables note input")
	flag.IntVar(&blockSize, "block-size", 1024, "Audio callback block size, in frames")
	flag.IntVar(&windowMs, "window-ms", 200, "Rolling chroma window length, in milliseconds")
	flag.IntVar(&octaves, "octaves", chroma.DefaultParams.OctaveCount, "Number of octaves summed into each chroma bin")
	flag.IntVar(&lowOctave, "low-octave", chroma.DefaultParams.LowOctave, "Lowest octave summed into each chroma bin")
	flag.IntVar(&maxBuffer, "max-buffer", 24, "Clamped to 1..24 and written to the debug log only; the observation FIFO is always capped at the HMM's 24 states")
	flag.Float64Var(&anchorHz, "anchor-hz", pitch.AnchorHz, "Frequency in Hz of pitch class A in octave 0")
	flag.StringVar(&remapMode, "remap-mode", "chord", "Initial remap mode: chord, nearest, or transpose")
	flag.BoolVar(&disableOutput, "disable-output", false, "Run the pipeline without sending remapped notes to a sink")
	flag.StringVar(&debugLog, "debug", "", "If set, write debug logs to this file; empty disables logging")
	flag.Parse()

	pitch.AnchorHz = anchorHz
	if maxBuffer <= 0 || maxBuffer > pitch.NumChords {
		maxBuffer = pitch.NumChords
	}

	if debugLog != "" {
		f, err := os.OpenFile(debugLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("could not open debug log: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetOutput(io.Discard)
	}

	mode, err := parseRemapMode(remapMode)
	if err != nil {
		log.Fatalf("bad -remap-mode: %v", err)
	}

	tmpl, err := params.Load()
	if err != nil {
		log.Fatalf("could not load HMM parameters: %v", err)
	}
	model, err := hmm.New(tmpl)
	if err != nil {
		log.Fatalf("could not build HMM: %v", err)
	}

	var source audioio.Source
	if wavFile != "" {
		source, err = audioio.NewPlayer(wavFile, blockSize)
		if err != nil {
			log.Fatalf("could not open wav file %s: %v", wavFile, err)
		}
	} else if audioDevice != "" {
		log.Fatalf("live audio capture device %q requested but no live Source is wired; pass -wav for an offline run", audioDevice)
	} else {
		log.Fatalf("no audio source configured: pass -wav for an offline run")
	}

	var sink noteio.NoteSink
	if midiOutDevice != "" && !disableOutput {
		sink, err = noteio.NewMidiSink(midiOutDevice, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open midi output %s: %v\navailable outputs: %q\n", midiOutDevice, err, noteio.OutDevices())
			log.Fatalf("could not open midi output %s: %v", midiOutDevice, err)
		}
		defer sink.Close()
	}

	var noteSource noteio.NoteSource
	if midiInDevice != "" {
		noteSource, err = noteio.NewMidiSource(midiInDevice)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open midi input %s: %v\navailable inputs: %q\n", midiInDevice, err, noteio.InDevices())
			log.Fatalf("could not open midi input %s: %v", midiInDevice, err)
		}
	}

	remapper := &syncRemapper{r: remap.New(mode)}

	eventBus := bus.New(64)
	vizBus := bus.NewVisualization()

	oscClient := osc.NewClient("localhost", oscPort)

	ctx, cancel := context.WithCancel(context.Background())
	setupSignalCleanup(cancel, source, sink, noteSource)

	vizServer := viz.NewServer(vizBus, func(m string) {
		if mode, err := parseRemapMode(m); err == nil {
			remapper.SetMode(mode)
			eventBus.Publish(bus.Event{Kind: bus.KindMode, Mode: int(mode)})
		} else {
			log.Printf("[ACCOMPANIST] ignoring unknown SoloMode %q", m)
		}
	})
	vizAddr := fmt.Sprintf(":%d", vizPort)
	go func() {
		if err := vizServer.ListenAndServe(ctx, vizAddr); err != nil {
			log.Printf("[ACCOMPANIST] viz server stopped: %v", err)
		}
	}()
	log.Printf("[ACCOMPANIST] visualization server listening on %s", vizAddr)

	go runBusConsumer(eventBus, remapper)

	if noteSource != nil {
		go runNoteLoop(noteSource, sink, remapper, vizBus)
	}

	log.Printf("[ACCOMPANIST] -max-buffer %d; observation FIFO capped at %d (HMM state count)", maxBuffer, pitch.NumChords)
	chromaParams := chroma.Params{LowOctave: lowOctave, OctaveCount: octaves}
	runAudioLoop(source, model, vizBus, eventBus, oscClient, windowMs, chromaParams)
}

// syncRemapper wraps remap.Remapper with a mutex: the bus consumer updates
// the chord/scale hypothesis concurrently with the note loop reading it on
// every NoteOn/NoteOff.
type syncRemapper struct {
	mu sync.Mutex
	r  *remap.Remapper
}

func (s *syncRemapper) SetMode(m remap.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.SetMode(m)
}

func (s *syncRemapper) SetChord(c pitch.Chord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.SetChord(c)
}

func (s *syncRemapper) SetScale(sc pitch.Scale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.SetScale(sc)
}

func (s *syncRemapper) NoteOn(raw uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.NoteOn(raw)
}

func (s *syncRemapper) NoteOff(raw uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.NoteOff(raw)
}

// runBusConsumer applies every KindChords/KindScale event to the remapper,
// the wiring the internal bus exists for (§4.7): the most recent decoded
// chord and the current scale hypothesis always drive the next remap.
func runBusConsumer(eventBus *bus.Bus, remapper *syncRemapper) {
	for e := range eventBus.Events() {
		switch e.Kind {
		case bus.KindChords:
			if len(e.Chords) > 0 {
				remapper.SetChord(e.Chords[len(e.Chords)-1])
			}
		case bus.KindScale:
			remapper.SetScale(e.Scale)
		}
	}
}

func parseRemapMode(s string) (remap.Mode, error) {
	switch s {
	case "chord", "Chord":
		return remap.ModeChord, nil
	case "nearest", "Nearest":
		return remap.ModeNearest, nil
	case "transpose", "Transpose":
		return remap.ModeTranspose, nil
	default:
		return 0, fmt.Errorf("unknown remap mode %q", s)
	}
}

// runAudioLoop wires one audio source through onset detection, chroma
// aggregation, and HMM decoding, updating the remapper's chord/scale
// hypothesis and publishing visualization frames on every decode.
func runAudioLoop(source audioio.Source, model *hmm.Model, vizBus *bus.Visualization, eventBus *bus.Bus, oscClient *osc.Client, windowMs int, chromaParams chroma.Params) {
	agg := aggregator.New(float64(source.SampleRate()), windowMs, chromaParams)
	det := onset.New(43, 10)
	var history []pitch.Chord
	var currentScale pitch.Scale

	err := source.Start(func(block []float32) {
		mono := audioio.Downmix(block, source.Channels())
		det.Process(mono)
		beat := det.Take()
		if beat {
			if err := oscClient.Send(osc.NewMessage("/beat")); err != nil {
				log.Printf("[ACCOMPANIST] osc send error: %v", err)
			}
			vizBus.Publish(bus.VizEvent{Kind: bus.VizBeat})
		}

		result := agg.Process(mono, beat)
		if !result.Ready {
			return
		}

		chords := model.DecodeChords(result.Observations)
		if len(chords) == 0 {
			return
		}
		current := chords[len(chords)-1]
		history = appendHistory(history, current)
		currentScale = scale.Reduce(history)

		if !eventBus.PublishNonBlocking(bus.Event{Kind: bus.KindChords, Chords: chords}) {
			log.Printf("[ACCOMPANIST] event bus full, dropping chords event")
		}
		if !eventBus.PublishNonBlocking(bus.Event{Kind: bus.KindScale, Scale: currentScale}) {
			log.Printf("[ACCOMPANIST] event bus full, dropping scale event")
		}

		inferred := model.InferAll(result.Observations[len(result.Observations)-1])
		inferences := make([]bus.ChordInference, len(inferred))
		for i, ci := range inferred {
			inferences[i] = bus.ChordInference{Chord: ci.Chord, Y: ci.Y}
		}

		vizBus.Publish(bus.VizEvent{
			Kind:            bus.VizInference,
			Chord:           current,
			ChordInferences: inferences,
			Scale:           currentScale,
		})
	})
	if err != nil {
		log.Printf("[ACCOMPANIST] audio source stopped: %v", err)
	}
}

// historyLimit bounds the chord history the scale reducer scans; well
// past the longest plausible phrase, it just stops growing unbounded.
const historyLimit = 64

func appendHistory(history []pitch.Chord, c pitch.Chord) []pitch.Chord {
	history = append(history, c)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	return history
}

// runNoteLoop drains raw note events, remaps each one, forwards it to the
// sink, and tees a MidiEvent frame to the visualization fan-out.
func runNoteLoop(source noteio.NoteSource, sink noteio.NoteSink, remapper *syncRemapper, vizBus *bus.Visualization) {
	for {
		on, note, ok := source.Next()
		if !ok {
			return
		}
		var mapped uint8
		if on {
			mapped = remapper.NoteOn(note)
			if sink != nil {
				if err := sink.NoteOn(mapped, 127); err != nil {
					log.Printf("[ACCOMPANIST] note-on send error: %v", err)
				}
			}
		} else {
			mapped = remapper.NoteOff(note)
			if sink != nil {
				if err := sink.NoteOff(mapped); err != nil {
					log.Printf("[ACCOMPANIST] note-off send error: %v", err)
				}
			}
		}
		vizBus.Publish(bus.VizEvent{Kind: bus.VizMidi, Note: note, MappedNote: mapped, On: on})
	}
}

// setupSignalCleanup stops the audio source, closes the note I/O, and exits
// on an interrupt or termination signal, mirroring the teacher's
// signal-driven cleanup goroutine.
func setupSignalCleanup(cancel context.CancelFunc, source audioio.Source, sink noteio.NoteSink, noteSource noteio.NoteSource) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-c
		cancel()
		source.Stop()
		if noteSource != nil {
			noteSource.Close()
		}
		if sink != nil {
			sink.Close()
		}
		os.Exit(0)
	}()
}
