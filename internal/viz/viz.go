// Package viz serves the visualization socket: a local TCP server
// publishing inference-state JSON frames to any connected client, and
// accepting SoloMode frames that change the active remap mode (§6.3).
package viz

import (
	"bufio"
	"context"
	"log"
	"net"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/schollz/accompanist/internal/bus"
	"github.com/schollz/accompanist/internal/pitch"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// inferenceFrame is the outbound wire shape for an InferenceEvent frame.
type inferenceFrame struct {
	Type            string               `json:"type"`
	Chord           chordWire            `json:"chord"`
	ChordInferences []chordInferenceWire `json:"chord_inferences"`
	Scale           scaleWire            `json:"scale"`
}

type chordWire struct {
	Root    int    `json:"root"`
	Quality string `json:"quality"`
}

type chordInferenceWire struct {
	Chord chordWire                 `json:"chord"`
	Y     [pitch.NumClasses]float64 `json:"y"`
}

type scaleWire struct {
	Root int `json:"root"`
}

// midiFrame is the outbound wire shape for a MidiEvent frame.
type midiFrame struct {
	Type       string `json:"type"`
	Note       uint8  `json:"note"`
	MappedNote uint8  `json:"mapped_note"`
	On         bool   `json:"on"`
}

// beatFrame is the outbound wire shape for a Beat frame.
type beatFrame struct {
	Type string `json:"type"`
}

// soloModeFrame is the inbound wire shape clients send to change mode.
type soloModeFrame struct {
	SoloMode string `json:"SoloMode"`
}

func encode(e bus.VizEvent) ([]byte, bool) {
	switch e.Kind {
	case bus.VizInference:
		infs := make([]chordInferenceWire, len(e.ChordInferences))
		for i, ci := range e.ChordInferences {
			infs[i] = chordInferenceWire{
				Chord: chordWire{Root: int(ci.Chord.Root), Quality: ci.Chord.Quality.String()},
				Y:     ci.Y,
			}
		}
		frame := inferenceFrame{
			Type:            "InferenceEvent",
			Chord:           chordWire{Root: int(e.Chord.Root), Quality: e.Chord.Quality.String()},
			ChordInferences: infs,
			Scale:           scaleWire{Root: int(e.Scale.Root)},
		}
		b, err := json.Marshal(frame)
		if err != nil {
			return nil, false
		}
		return append(b, '\n'), true
	case bus.VizMidi:
		b, err := json.Marshal(midiFrame{Type: "MidiEvent", Note: e.Note, MappedNote: e.MappedNote, On: e.On})
		if err != nil {
			return nil, false
		}
		return append(b, '\n'), true
	case bus.VizBeat:
		b, err := json.Marshal(beatFrame{Type: "Beat"})
		if err != nil {
			return nil, false
		}
		return append(b, '\n'), true
	default:
		return nil, false
	}
}

// ModeSetter receives a parsed SoloMode frame so the caller can apply it
// to the remapper. The string is one of "Chord", "Nearest", "Transpose".
type ModeSetter func(mode string)

// Server accepts TCP connections on a fixed port, tees each into the
// shared Visualization fan-out, and parses any inbound SoloMode frames.
type Server struct {
	viz      *bus.Visualization
	onMode   ModeSetter
	listener net.Listener

	mu   sync.Mutex
	wg   sync.WaitGroup
	stop context.CancelFunc
}

// NewServer wires a Server to an existing Visualization fan-out. onMode is
// invoked (from the connection's own goroutine) whenever a client sends a
// valid SoloMode frame.
func NewServer(viz *bus.Visualization, onMode ModeSetter) *Server {
	return &Server{viz: viz, onMode: onMode}
}

// ListenAndServe opens the TCP listener on addr (e.g. ":1234") and serves
// connections until ctx is canceled or Close is called. It returns once
// the listener is closed.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.listener = ln
	s.stop = cancel
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Printf("[VIZ] accept error: %v", err)
				return err
			}
		}
		s.wg.Add(1)
		go s.serve(ctx, conn)
	}
}

// Close stops accepting new connections and releases the listener.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
	}
}

// Wait blocks until every in-flight connection handler has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	id, ch := s.viz.Subscribe(32)
	defer s.viz.Unsubscribe(id)

	go s.readInbound(conn)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			frame, ok := encode(e)
			if !ok {
				continue
			}
			if _, err := conn.Write(frame); err != nil {
				log.Printf("[VIZ] client write error, closing: %v", err)
				return
			}
		}
	}
}

// readInbound parses newline-delimited JSON frames from a client. A
// malformed frame is logged and dropped; the connection stays open so
// later frames can still be read (§7).
func (s *Server) readInbound(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var frame soloModeFrame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			log.Printf("[VIZ] dropping malformed inbound frame: %v", err)
			continue
		}
		if frame.SoloMode == "" {
			continue
		}
		if s.onMode != nil {
			s.onMode(frame.SoloMode)
		}
	}
}
