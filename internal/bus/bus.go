// Package bus implements the internal typed event channel that connects
// the inference pipeline to the note remapper, and the lossy outward
// fan-out to visualization subscribers (§4.7).
package bus

import (
	"sync"

	"github.com/schollz/accompanist/internal/pitch"
)

// EventKind discriminates the internal bus's typed events.
type EventKind int

const (
	KindNote EventKind = iota
	KindChords
	KindScale
	KindMode
)

// Event is one internal bus message. Only the field matching Kind is
// meaningful.
type Event struct {
	Kind   EventKind
	On     bool // KindNote
	Raw    uint8
	Chords []pitch.Chord // KindChords: full decoded path, oldest first
	Scale  pitch.Scale   // KindScale
	Mode   int           // KindMode: remap.Mode, kept as int to avoid an import cycle
}

// Bus is an in-process fan-in point: producers publish internal Events; a
// single consumer (the remapper's driving goroutine) reads them in
// production order.
type Bus struct {
	events chan Event
}

// New creates a Bus with the given channel capacity.
func New(capacity int) *Bus {
	return &Bus{events: make(chan Event, capacity)}
}

// Publish enqueues an event, blocking until there is room. The internal bus
// is explicitly ordered and delivered (§5 "Ordering"), so this is correct
// for producers off the audio callback thread (e.g. the visualization
// server's SoloMode handler).
// Callers on the hot audio-callback path must use PublishNonBlocking
// instead: §5 forbids any blocking channel send from the callback.
func (b *Bus) Publish(e Event) {
	b.events <- e
}

// PublishNonBlocking enqueues an event without blocking, dropping it if the
// channel is full. This is the only send the audio callback may use (§5):
// a lagging consumer must never stall the realtime thread. It reports
// whether the event was enqueued.
func (b *Bus) PublishNonBlocking(e Event) bool {
	select {
	case b.events <- e:
		return true
	default:
		return false
	}
}

// Events returns the channel consumers range over. Closed when the
// producer side calls Close.
func (b *Bus) Events() <-chan Event {
	return b.events
}

// Close signals end-of-input to consumers.
func (b *Bus) Close() {
	close(b.events)
}

// Visualization frame kinds published to external socket subscribers.
type VizKind int

const (
	VizInference VizKind = iota
	VizMidi
	VizBeat
)

// ChordInference pairs a chord hypothesis with the observation rotated to
// that chord's root (as scored by the HMM), for the visualization's
// full-distribution display.
type ChordInference struct {
	Chord pitch.Chord
	Y     [pitch.NumClasses]float64
}

// VizEvent is a value-copy snapshot published to visualization
// subscribers; never shares mutable state with pipeline internals (§3).
type VizEvent struct {
	Kind            VizKind
	Chord           pitch.Chord
	ChordInferences []ChordInference
	Scale           pitch.Scale
	Note            uint8
	MappedNote      uint8
	On              bool
}

// Visualization is the lossy outward fan-out described in §4.7/§5: each
// subscriber gets its own buffered channel, and a publish that would block
// is dropped for that subscriber only — no back-pressure ever reaches the
// audio path.
type Visualization struct {
	mu          sync.Mutex
	subscribers map[int]chan VizEvent
	nextID      int
}

// NewVisualization creates an empty subscriber registry.
func NewVisualization() *Visualization {
	return &Visualization{subscribers: make(map[int]chan VizEvent)}
}

// Subscribe registers a new subscriber and returns its id and receive
// channel. Unsubscribe must be called when the subscriber disconnects.
func (v *Visualization) Subscribe(capacity int) (id int, ch <-chan VizEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	id = v.nextID
	c := make(chan VizEvent, capacity)
	v.subscribers[id] = c
	return id, c
}

// Unsubscribe removes and closes a subscriber's channel.
func (v *Visualization) Unsubscribe(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.subscribers[id]; ok {
		delete(v.subscribers, id)
		close(c)
	}
}

// Publish fans e out to every subscriber, dropping it for any subscriber
// whose buffer is full rather than blocking.
func (v *Visualization) Publish(e VizEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.subscribers {
		select {
		case c <- e:
		default:
		}
	}
}
