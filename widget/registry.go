// Package widget holds the static table that maps widget ids to renderable
// units. Adding a widget means adding an Entry; dispatch code never changes.
package widget

import (
	"errors"
	"fmt"
)

// Kind is the broad family a widget belongs to.
type Kind string

const (
	KindCard   Kind = "card"
	KindChart  Kind = "chart"
	KindTable  Kind = "table"
	KindSearch Kind = "search"
)

// Renderable is a self-contained widget. It needs no inputs beyond the
// caption it is shown under; whatever data it fetches is its own business.
type Renderable interface {
	Kind() Kind
}

// Entry binds a widget id to its renderable and a default label.
type Entry struct {
	ID     string
	Label  string
	Widget Renderable
}

var ErrDuplicateEntry = errors.New("duplicate registry entry")

// Registry is an immutable id -> Entry lookup table that remembers
// registration order.
type Registry struct {
	byID  map[string]Entry
	order []string
}

// NewRegistry builds a registry. Ids must be non-empty and unique and every
// entry needs a widget.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{byID: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.ID == "" || e.Widget == nil {
			return nil, fmt.Errorf("widget: incomplete entry %+v", e)
		}
		if _, ok := r.byID[e.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntry, e.ID)
		}
		r.byID[e.ID] = e
		r.order = append(r.order, e.ID)
	}
	return r, nil
}

// MustRegistry is NewRegistry for package-level tables known to be valid.
func MustRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry for id. A nil registry has no entries.
func (r *Registry) Lookup(id string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	e, ok := r.byID[id]
	return e, ok
}

// Entries lists every entry in registration order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

// Len is the number of registered widgets.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
