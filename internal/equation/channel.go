// Package equation hands equation sets from the input surface to the render loop.
package equation

import (
	"strings"
	"sync/atomic"
)

// Snapshot is one full set of equation source lines captured by a single "apply".
type Snapshot struct {
	Seq   uint64
	Lines []string
}

// Channel is a single-slot, lock-free mailbox between one producer and one consumer.
// A snapshot published before the previous one was received replaces it.
type Channel struct {
	slot    atomic.Pointer[Snapshot]
	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Publish stores a copy of lines as the pending snapshot and returns it.
// Never blocks.
func (c *Channel) Publish(lines []string) Snapshot {
	s := Snapshot{
		Seq:   c.seq.Add(1),
		Lines: append([]string(nil), lines...),
	}
	if old := c.slot.Swap(&s); old != nil {
		c.dropped.Add(1)
	}
	return s
}

// TryReceive takes the pending snapshot, if any. Never blocks.
func (c *Channel) TryReceive() (Snapshot, bool) {
	s := c.slot.Swap(nil)
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Dropped returns how many snapshots were overwritten before being received.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}

// SplitLines splits text into lines. "\r\n" endings are accepted, a final
// newline does not start an extra line, and blank lines are kept.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
