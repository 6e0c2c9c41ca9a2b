// Package notify carries committed arrangements from the editor to the
// dashboard. It holds one value; a newer publish overwrites an unread one.
package notify

import (
	"context"
	"sync"

	"widget-dashboard/preference"
)

// Channel is a single-slot, last-write-wins mailbox. Each publish gets a
// sequence number so readers can ask for "anything newer than what I saw".
type Channel struct {
	mu     sync.Mutex
	latest preference.Committed
	seq    uint64
	wake   chan struct{}
}

// New returns an empty channel.
func New() *Channel {
	return &Channel{wake: make(chan struct{})}
}

// Publish replaces the slot and wakes every waiting reader.
func (c *Channel) Publish(cs preference.Committed) {
	c.mu.Lock()
	c.latest = cs
	c.seq++
	close(c.wake)
	c.wake = make(chan struct{})
	c.mu.Unlock()
}

// Latest returns the newest value and its sequence number. ok is false
// until the first publish.
func (c *Channel) Latest() (cs preference.Committed, seq uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.seq, c.seq > 0
}

// Wait blocks until a value with a sequence number greater than seen is
// available or ctx is done. Values published in between are skipped.
func (c *Channel) Wait(ctx context.Context, seen uint64) (preference.Committed, uint64, error) {
	for {
		c.mu.Lock()
		if c.seq > seen {
			cs, seq := c.latest, c.seq
			c.mu.Unlock()
			return cs, seq, nil
		}
		wake := c.wake
		c.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return preference.Committed{}, seen, ctx.Err()
		}
	}
}
