// Package render turns a committed arrangement into the ordered list of
// widgets the dashboard shows.
package render

import (
	"widget-dashboard/preference"
	"widget-dashboard/widget"
)

// Item is one widget placed on the dashboard.
type Item struct {
	ID      string            `json:"id"`
	Caption string            `json:"caption"`
	Kind    widget.Kind       `json:"kind"`
	Widget  widget.Renderable `json:"-"`
}

// Render walks the arrangement in order and emits every visible descriptor
// that the registry knows. Unknown ids produce nothing, not a gap, so the
// output is the same as if the descriptor were absent. The result depends
// only on the arguments.
func Render(cs preference.Committed, reg *widget.Registry) []Item {
	items := []Item{}
	for _, d := range cs.Descriptors() {
		if !d.IsVisible {
			continue
		}
		e, ok := reg.Lookup(d.ID)
		if !ok {
			continue
		}
		items = append(items, Item{
			ID:      d.ID,
			Caption: d.Label,
			Kind:    e.Widget.Kind(),
			Widget:  e.Widget,
		})
	}
	return items
}
