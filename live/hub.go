package live

import (
	"sync"

	"widget-dashboard/userstore"
)

// Hub maps users to their feeds. A feed exists only while a connection is
// attached to it; the stored arrangement is replayed on every connect, so
// nothing is lost when an idle feed is dropped.
type Hub struct {
	mu    sync.RWMutex
	feeds map[string]*Feed
}

func NewHub() *Hub {
	return &Hub{feeds: make(map[string]*Feed)}
}

// Attach connects a new client to the feed for email, creating the feed if
// needed and displacing any client already attached.
func (h *Hub) Attach(email string) (*Feed, *Client) {
	key := userstore.NormalizeEmail(email)

	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[key]
	if !ok {
		f = &Feed{}
		h.feeds[key] = f
	}
	return f, f.Attach()
}

// Detach ends c's connection and drops the feed once nobody is attached.
func (h *Hub) Detach(email string, f *Feed, c *Client) {
	key := userstore.NormalizeEmail(email)

	h.mu.Lock()
	defer h.mu.Unlock()
	f.Detach(c)
	if !f.Connected() && h.feeds[key] == f {
		delete(h.feeds, key)
	}
}

// Publish forwards u to the feed for email. Without a connected feed there
// is no one to tell.
func (h *Hub) Publish(email string, u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if f, ok := h.feeds[userstore.NormalizeEmail(email)]; ok {
		f.Publish(u)
	}
}

// Connected counts feeds with an attached client.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, f := range h.feeds {
		if f.Connected() {
			n++
		}
	}
	return n
}

// Len is the number of feeds currently held.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds)
}
