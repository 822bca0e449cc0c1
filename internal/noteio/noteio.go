// Package noteio defines the note input/output adapter contracts (§6.2):
// NoteSource delivers the performer's raw note stream, NoteSink delivers
// the remapped stream to an instrument.
package noteio

// NoteSource is a blocking, channel-backed stream of raw note events.
type NoteSource interface {
	// Next blocks until the next event or end-of-input. ok is false once
	// the source is closed and drained.
	Next() (on bool, note uint8, ok bool)
	Close() error
}

// NoteSink accepts remapped note events for playback.
type NoteSink interface {
	NoteOn(note, velocity uint8) error
	NoteOff(note uint8) error
	Close() error
}

// ChanSource adapts a channel of events into a NoteSource, for tests and
// for feeding synthetic note streams into the pipeline.
type ChanSource struct {
	events chan noteEvent
}

type noteEvent struct {
	on   bool
	note uint8
}

// NewChanSource creates a ChanSource with the given buffer capacity.
func NewChanSource(capacity int) *ChanSource {
	return &ChanSource{events: make(chan noteEvent, capacity)}
}

// Push enqueues a note event. It blocks if the buffer is full.
func (c *ChanSource) Push(on bool, note uint8) {
	c.events <- noteEvent{on: on, note: note}
}

func (c *ChanSource) Next() (on bool, note uint8, ok bool) {
	e, ok := <-c.events
	return e.on, e.note, ok
}

func (c *ChanSource) Close() error {
	close(c.events)
	return nil
}
