package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/schollz/accompanist/internal/pitch"
)

func TestBusOrdering(t *testing.T) {
	b := New(4)
	go func() {
		b.Publish(Event{Kind: KindNote, On: true, Raw: 60})
		b.Publish(Event{Kind: KindNote, On: false, Raw: 60})
		b.Close()
	}()

	var got []Event
	for e := range b.Events() {
		got = append(got, e)
	}
	assert.Len(t, got, 2)
	assert.True(t, got[0].On)
	assert.False(t, got[1].On)
}

func TestVisualizationDropsOnFullBuffer(t *testing.T) {
	v := NewVisualization()
	_, ch := v.Subscribe(1)

	v.Publish(VizEvent{Kind: VizBeat})
	v.Publish(VizEvent{Kind: VizBeat}) // buffer full, must not block

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected first event to be available")
	}
}

func TestVisualizationUnsubscribeClosesChannel(t *testing.T) {
	v := NewVisualization()
	id, ch := v.Subscribe(1)
	v.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestVisualizationMultipleSubscribersIndependent(t *testing.T) {
	v := NewVisualization()
	_, ch1 := v.Subscribe(2)
	_, ch2 := v.Subscribe(2)

	v.Publish(VizEvent{Kind: VizInference, Scale: pitch.Scale{Root: pitch.C}})

	e1 := <-ch1
	e2 := <-ch2
	assert.Equal(t, pitch.C, e1.Scale.Root)
	assert.Equal(t, pitch.C, e2.Scale.Root)
}
