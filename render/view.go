package render

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"widget-dashboard/notify"
	"widget-dashboard/preference"
	"widget-dashboard/widget"
)

// View owns the rendered dashboard. It only ever renders committed
// arrangements, so it has no error path of its own.
type View struct {
	registry *widget.Registry
	logger   *zap.Logger

	mu      sync.RWMutex
	items   []Item
	version uint64
	renders int
	onShow  func([]Item, uint64)
}

// NewView returns an empty view over registry.
func NewView(registry *widget.Registry, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{registry: registry, logger: logger, items: []Item{}}
}

// Show renders cs and makes it the current dashboard.
func (v *View) Show(cs preference.Committed) {
	items := Render(cs, v.registry)

	v.mu.Lock()
	v.items = items
	v.version = cs.Version()
	v.renders++
	hook := v.onShow
	v.mu.Unlock()

	if hook != nil {
		hook(append([]Item(nil), items...), cs.Version())
	}

	v.logger.Debug("dashboard rendered",
		zap.Int("widgets", len(items)),
		zap.Int("descriptors", cs.Len()),
		zap.Uint64("version", cs.Version()))
}

// OnShow registers fn to be called with every newly rendered dashboard.
func (v *View) OnShow(fn func(items []Item, version uint64)) {
	v.mu.Lock()
	v.onShow = fn
	v.mu.Unlock()
}

// Items returns a copy of the current dashboard.
func (v *View) Items() []Item {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Item, len(v.items))
	copy(out, v.items)
	return out
}

// Version is the committed version currently on screen.
func (v *View) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// Renders counts how many times the view has been redrawn.
func (v *View) Renders() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.renders
}

// Run redraws the view every time a new arrangement lands on ch, until ctx
// is done. A value already waiting on ch is shown immediately.
func (v *View) Run(ctx context.Context, ch *notify.Channel) error {
	var seen uint64
	for {
		cs, seq, err := ch.Wait(ctx, seen)
		if err != nil {
			return err
		}
		seen = seq
		v.Show(cs)
	}
}
