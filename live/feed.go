// Package live pushes committed arrangements to the dashboard a user has
// open. Each user has one feed; each feed serves at most one connection.
package live

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"widget-dashboard/preference"
)

// Update is one arrangement pushed to a dashboard.
type Update struct {
	Version    uint64         `json:"version"`
	Components preference.Set `json:"components"`
	At         time.Time      `json:"at"`
}

// Client is the connection currently attached to a feed.
type Client struct {
	ID   string
	Out  chan Update
	kick chan struct{}
}

// Kicked is closed when a newer connection displaces this one.
func (c *Client) Kicked() <-chan struct{} {
	return c.kick
}

// Feed holds the latest update for one user and the single client, if any,
// that receives new ones.
type Feed struct {
	mu     sync.Mutex
	latest *Update
	client *Client
}

// Publish records u as the latest update and hands it to the attached
// client. A client whose buffer is full misses the update; it will see
// the next one, which supersedes it anyway.
func (f *Feed) Publish(u Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest != nil && u.Version < f.latest.Version {
		return
	}
	cp := u
	cp.Components = u.Components.Clone()
	f.latest = &cp
	if f.client != nil {
		select {
		case f.client.Out <- cp:
		default:
		}
	}
}

// Latest returns the most recent update, if any.
func (f *Feed) Latest() (Update, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return Update{}, false
	}
	u := *f.latest
	u.Components = u.Components.Clone()
	return u, true
}

// Attach registers a new client, displacing any existing one by closing its
// kick channel.
func (f *Feed) Attach() *Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		close(f.client.kick)
	}
	c := &Client{
		ID:   uuid.NewString(),
		Out:  make(chan Update, 8),
		kick: make(chan struct{}),
	}
	f.client = c
	return c
}

// Detach is called when a connection ends. It only clears the feed if c is
// still the owner, so a displaced connection cannot detach a newer one. It
// always closes c.Out so the writer goroutine exits.
func (f *Feed) Detach(c *Client) {
	f.mu.Lock()
	if f.client == c {
		f.client = nil
	}
	f.mu.Unlock()
	close(c.Out)
}

// Connected reports whether a client is attached.
func (f *Feed) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client != nil
}
