package viz

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/accompanist/internal/bus"
	"github.com/schollz/accompanist/internal/pitch"
)

func TestEncodeInferenceEvent(t *testing.T) {
	e := bus.VizEvent{
		Kind:  bus.VizInference,
		Chord: pitch.Chord{Root: pitch.C, Quality: pitch.Major},
		ChordInferences: []bus.ChordInference{
			{Chord: pitch.Chord{Root: pitch.C, Quality: pitch.Major}, Y: [pitch.NumClasses]float64{}},
		},
		Scale: pitch.Scale{Root: pitch.C},
	}
	b, ok := encode(e)
	require.True(t, ok)
	assert.Contains(t, string(b), `"type":"InferenceEvent"`)
	assert.Contains(t, string(b), `"quality":"major"`)
}

func TestEncodeMidiEvent(t *testing.T) {
	b, ok := encode(bus.VizEvent{Kind: bus.VizMidi, Note: 60, MappedNote: 64, On: true})
	require.True(t, ok)
	assert.Contains(t, string(b), `"type":"MidiEvent"`)
	assert.Contains(t, string(b), `"mapped_note":64`)
}

func TestEncodeBeatEvent(t *testing.T) {
	b, ok := encode(bus.VizEvent{Kind: bus.VizBeat})
	require.True(t, ok)
	assert.Contains(t, string(b), `"type":"Beat"`)
}

func TestServerPublishesToConnectedClient(t *testing.T) {
	v := bus.NewVisualization()
	s := NewServer(v, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	go s.ListenAndServe(ctx, addr)
	time.Sleep(50 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	v.Publish(bus.VizEvent{Kind: bus.VizBeat})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "Beat")

	s.Close()
}

func TestServerParsesInboundSoloMode(t *testing.T) {
	v := bus.NewVisualization()
	received := make(chan string, 1)
	s := NewServer(v, func(mode string) { received <- mode })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	go s.ListenAndServe(ctx, addr)
	time.Sleep(50 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"SoloMode":"Nearest"}` + "\n"))
	require.NoError(t, err)

	select {
	case mode := <-received:
		assert.Equal(t, "Nearest", mode)
	case <-time.After(2 * time.Second):
		t.Fatal("expected onMode callback to fire")
	}

	s.Close()
}
