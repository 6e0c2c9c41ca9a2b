package preference

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State is the lifecycle of a Store.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Committing
	Failed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Committing:
		return "committing"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Gateway moves arrangements to and from the remote store.
type Gateway interface {
	Load(ctx context.Context, cred Credential) (Set, error)
	Save(ctx context.Context, set Set, cred Credential) error
}

// Store owns the committed arrangement for one user and mediates every load
// and commit. It is safe to call from several goroutines, but it assumes at
// most one editor session edits against it at a time.
type Store struct {
	gateway Gateway
	logger  *zap.Logger

	mu        sync.Mutex
	state     State
	err       error
	loadSeq   uint64
	commitGen uint64
	committed Committed
	hasCommit bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and commit events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore returns an Unloaded store backed by gw.
func NewStore(gw Gateway, opts ...Option) *Store {
	s := &Store{gateway: gw, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports where the store is in its lifecycle.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the store into the error state, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Committed returns the last arrangement known to be persisted remotely.
func (s *Store) Committed() (Committed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed, s.hasCommit
}

// Load fetches the arrangement. If another Load starts before this one
// returns, or a Commit is in flight or completes while it runs, this one
// yields ErrStale and leaves the store untouched. A successful load becomes
// the committed baseline since it is exactly what the remote store last
// acknowledged.
func (s *Store) Load(ctx context.Context, cred Credential) (Set, error) {
	if cred == "" {
		return nil, ErrNoCredential
	}

	s.mu.Lock()
	s.loadSeq++
	seq, gen := s.loadSeq, s.commitGen
	if s.state != Committing {
		s.state = Loading
	}
	s.mu.Unlock()

	set, err := s.gateway.Load(ctx, cred)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq {
		s.logger.Debug("discarding stale load", zap.Uint64("seq", seq), zap.Uint64("latest", s.loadSeq))
		return nil, ErrStale
	}
	if gen != s.commitGen || s.state == Committing {
		// The response may predate a write this store made.
		s.logger.Debug("discarding load that overlapped a commit")
		return nil, ErrStale
	}
	if err == nil {
		err = set.checkIDs()
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	if err != nil {
		s.state = Failed
		s.err = err
		s.logger.Warn("load preferences failed", zap.Error(err))
		return nil, err
	}

	s.state = Loaded
	s.err = nil
	s.committed = Committed{set: set.Clone(), version: s.committed.version}
	s.hasCommit = true
	s.logger.Debug("loaded preferences", zap.Int("components", len(set)))
	return set.Clone(), nil
}

// Commit validates set and writes it to the remote store. On success the
// returned Committed replaces the store's baseline. On failure nothing the
// caller or the renderer holds is changed, so the commit can be retried.
func (s *Store) Commit(ctx context.Context, set Set, cred Credential) (Committed, error) {
	if cred == "" {
		return Committed{}, ErrNoCredential
	}
	if err := set.Validate(); err != nil {
		return Committed{}, err
	}
	snapshot := set.Clone()

	s.mu.Lock()
	if s.state == Committing {
		s.mu.Unlock()
		return Committed{}, ErrCommitInFlight
	}
	s.state = Committing
	s.commitGen++
	s.mu.Unlock()

	err := s.gateway.Save(ctx, snapshot, cred)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitGen++
	if err != nil {
		s.state = Failed
		s.err = err
		s.logger.Warn("commit preferences failed", zap.Error(err))
		return Committed{}, err
	}
	s.state = Loaded
	s.err = nil
	s.committed = Committed{set: snapshot, version: s.committed.version + 1}
	s.hasCommit = true
	s.logger.Info("committed preferences",
		zap.Int("components", len(snapshot)),
		zap.Uint64("version", s.committed.version))
	return s.committed, nil
}
