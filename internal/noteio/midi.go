//go:build !windows

package noteio

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var outMutex sync.Mutex
var outDevicesOpen = make(map[string]drivers.Out)

// OutDevices lists available MIDI output port names.
func OutDevices() (devices []string) {
	for _, out := range midi.GetOutPorts() {
		devices = append(devices, out.String())
	}
	return
}

// InDevices lists available MIDI input port names.
func InDevices() (devices []string) {
	for _, in := range midi.GetInPorts() {
		devices = append(devices, in.String())
	}
	return
}

func filterOutName(name string) (foundName string, err error) {
	names := OutDevices()
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n, nil
		}
	}
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), strings.ToLower(name)) {
			return n, nil
		}
	}
	return "", fmt.Errorf("could not find midi output device with name %s", name)
}

// MidiSink is a NoteSink backed by a real MIDI output port, grounded on
// midiconnector's device-open mutex and raw NoteOn/NoteOff byte sends.
type MidiSink struct {
	name    string
	channel uint8
	notesOn map[uint8]bool
	mu      sync.Mutex
}

// NewMidiSink opens (or reuses) the named output port on the given 0-indexed
// MIDI channel.
func NewMidiSink(name string, channel uint8) (*MidiSink, error) {
	foundName, err := filterOutName(name)
	if err != nil {
		return nil, err
	}

	outMutex.Lock()
	defer outMutex.Unlock()
	if _, ok := outDevicesOpen[foundName]; !ok {
		out, err := midi.FindOutPort(foundName)
		if err != nil {
			return nil, fmt.Errorf("find out port: %w", err)
		}
		if err := out.Open(); err != nil {
			return nil, fmt.Errorf("open out port: %w", err)
		}
		outDevicesOpen[foundName] = out
	}

	return &MidiSink{name: foundName, channel: channel, notesOn: make(map[uint8]bool)}, nil
}

func (s *MidiSink) NoteOn(note, velocity uint8) error {
	outMutex.Lock()
	defer outMutex.Unlock()
	out, ok := outDevicesOpen[s.name]
	if !ok {
		return fmt.Errorf("device %s not open", s.name)
	}
	err := out.Send([]byte{0x90 | s.channel, note, velocity})
	if err != nil {
		log.Printf("[NOTEIO] MIDI NoteOn error for device %s: %v", s.name, err)
		return err
	}
	s.mu.Lock()
	s.notesOn[note] = true
	s.mu.Unlock()
	return nil
}

func (s *MidiSink) NoteOff(note uint8) error {
	outMutex.Lock()
	defer outMutex.Unlock()
	out, ok := outDevicesOpen[s.name]
	if !ok {
		return fmt.Errorf("device %s not open", s.name)
	}
	err := out.Send([]byte{0x80 | s.channel, note, 0})
	if err != nil {
		log.Printf("[NOTEIO] MIDI NoteOff error for device %s: %v", s.name, err)
		return err
	}
	s.mu.Lock()
	delete(s.notesOn, note)
	s.mu.Unlock()
	return nil
}

// Close sends a note-off for every note still held, then releases the
// underlying output port.
func (s *MidiSink) Close() error {
	s.mu.Lock()
	held := make([]uint8, 0, len(s.notesOn))
	for n := range s.notesOn {
		held = append(held, n)
	}
	s.mu.Unlock()
	for _, n := range held {
		s.NoteOff(n)
	}

	outMutex.Lock()
	defer outMutex.Unlock()
	out, ok := outDevicesOpen[s.name]
	if !ok {
		return nil
	}
	err := out.Close()
	delete(outDevicesOpen, s.name)
	return err
}

// MidiSource is a NoteSource backed by a real MIDI input port. It
// translates raw note-on/note-off MIDI messages into the ChanSource
// queue, which the teacher's midiconnector has no equivalent of (it is
// output-only); listening is new code in the teacher's idiom.
type MidiSource struct {
	*ChanSource
	stop func()
}

// NewMidiSource opens the named input port and starts listening in the
// background.
func NewMidiSource(name string) (*MidiSource, error) {
	ins := midi.GetInPorts()
	var port drivers.In
	for _, in := range ins {
		if strings.EqualFold(in.String(), name) || strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			port = in
			break
		}
	}
	if port == nil {
		return nil, fmt.Errorf("could not find midi input device with name %s", name)
	}

	src := &MidiSource{ChanSource: NewChanSource(256)}

	ctx, cancel := context.WithCancel(context.Background())
	stopFn, err := midi.ListenTo(port, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			select {
			case <-ctx.Done():
			default:
				src.Push(true, key)
			}
		case msg.GetNoteOff(&ch, &key, &vel):
			select {
			case <-ctx.Done():
			default:
				src.Push(false, key)
			}
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("listen: %w", err)
	}

	src.stop = func() {
		cancel()
		stopFn()
	}
	return src, nil
}

func (s *MidiSource) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return s.ChanSource.Close()
}
