// Package editor is the command surface a user drives to rearrange their
// dashboard. Edits stay in a session-local working copy until Save.
package editor

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"widget-dashboard/preference"
)

var ErrSessionClosed = errors.New("editor session closed")

// Publisher receives arrangements after they are committed.
type Publisher interface {
	Publish(preference.Committed)
}

// Editor is one edit session bound to a Store. Open at most one per Store.
type Editor struct {
	store  *preference.Store
	pub    Publisher
	cred   preference.Credential
	logger *zap.Logger

	mu      sync.Mutex
	working preference.Set
	dirty   bool
	saving  bool
	closed  bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// Open loads the current arrangement into a fresh working copy. A session
// cannot exist without a credential.
func Open(ctx context.Context, store *preference.Store, pub Publisher, cred preference.Credential, opts ...Option) (*Editor, error) {
	if cred == "" {
		return nil, preference.ErrNoCredential
	}
	e := &Editor{store: store, pub: pub, cred: cred, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	set, err := store.Load(ctx, cred)
	if err != nil {
		return nil, err
	}
	e.working = set
	return e, nil
}

// Working returns a copy of the arrangement being edited.
func (e *Editor) Working() preference.Set {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working.Clone()
}

// Dirty reports whether the working copy has unsaved edits.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Closed reports whether the session has ended.
func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Editor) MoveUp(index int) error {
	return e.apply(preference.MoveUp, index)
}

func (e *Editor) MoveDown(index int) error {
	return e.apply(preference.MoveDown, index)
}

func (e *Editor) ToggleVisibility(index int) error {
	return e.apply(preference.ToggleVisibility, index)
}

// apply runs one command against the working copy. Commands are rejected
// while a save is in flight so a half-edited arrangement is never sent.
func (e *Editor) apply(cmd func(preference.Set, int) (preference.Set, error), index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionClosed
	}
	if e.saving {
		return preference.ErrCommitInFlight
	}
	next, err := cmd(e.working, index)
	if err != nil {
		return err
	}
	e.working = next
	e.dirty = true
	return nil
}

// Save commits the working copy. On success the new arrangement is
// published and the session ends. On failure the session stays open with
// the working copy as it was, ready for another Save or a Close.
func (e *Editor) Save(ctx context.Context) (preference.Committed, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return preference.Committed{}, ErrSessionClosed
	}
	if e.saving {
		e.mu.Unlock()
		return preference.Committed{}, preference.ErrCommitInFlight
	}
	e.saving = true
	set := e.working.Clone()
	e.mu.Unlock()

	cs, err := e.store.Commit(ctx, set, e.cred)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		e.logger.Warn("save failed, keeping edits", zap.Error(err))
		return preference.Committed{}, err
	}
	e.closeLocked()
	if e.pub != nil {
		e.pub.Publish(cs)
	}
	return cs, nil
}

// Close ends the session and throws away any unsaved edits.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dirty && !e.closed {
		e.logger.Info("discarding unsaved edits")
	}
	e.closeLocked()
}

func (e *Editor) closeLocked() {
	e.closed = true
	e.dirty = false
	e.working = nil
}
