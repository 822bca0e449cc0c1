package noteio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChanSourcePushNext(t *testing.T) {
	c := NewChanSource(4)
	c.Push(true, 60)
	c.Push(false, 60)

	on, note, ok := c.Next()
	assert.True(t, ok)
	assert.True(t, on)
	assert.Equal(t, uint8(60), note)

	on, note, ok = c.Next()
	assert.True(t, ok)
	assert.False(t, on)
	assert.Equal(t, uint8(60), note)
}

func TestChanSourceCloseSignalsEnd(t *testing.T) {
	c := NewChanSource(1)
	c.Close()

	_, _, ok := c.Next()
	assert.False(t, ok)
}

// filterByName mirrors the matching precedence of filterOutName without
// calling into the real MIDI driver, the same way the teacher tests
// midiconnector's name filter against a fake device list.
func filterByName(name string, available []string) (string, bool) {
	for _, n := range available {
		if n == name {
			return n, true
		}
	}
	for _, n := range available {
		if len(n) >= len(name) && contains(n, name) {
			return n, true
		}
	}
	return "", false
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func TestFilterByNameExactMatch(t *testing.T) {
	found, ok := filterByName("IAC Driver Bus 1", []string{"IAC Driver Bus 1", "USB MIDI"})
	assert.True(t, ok)
	assert.Equal(t, "IAC Driver Bus 1", found)
}

func TestFilterByNamePartialMatch(t *testing.T) {
	found, ok := filterByName("USB", []string{"IAC Driver Bus 1", "USB MIDI Keyboard"})
	assert.True(t, ok)
	assert.Equal(t, "USB MIDI Keyboard", found)
}

func TestFilterByNameNoMatch(t *testing.T) {
	_, ok := filterByName("nonexistent", []string{"IAC Driver Bus 1"})
	assert.False(t, ok)
}
