package preference_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widget-dashboard/preference"
)

// fakeGateway serves a canned arrangement and records saves.
type fakeGateway struct {
	mu      sync.Mutex
	remote  preference.Set
	loadErr error
	saveErr error
	saves   int
	entered int

	// blockLoad, when set, is received from before Load returns.
	blockLoad chan preference.Set
	// blockSave, when set, is received from before Save returns.
	blockSave chan struct{}
}

func (g *fakeGateway) Load(ctx context.Context, cred preference.Credential) (preference.Set, error) {
	g.mu.Lock()
	g.entered++
	block := g.blockLoad
	g.mu.Unlock()
	if block != nil {
		return <-block, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	return g.remote.Clone(), nil
}

func (g *fakeGateway) Save(ctx context.Context, set preference.Set, cred preference.Credential) error {
	if g.blockSave != nil {
		<-g.blockSave
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.saves++
	g.remote = set.Clone()
	return nil
}

const cred = preference.Credential("token")

func TestStoreLoad(t *testing.T) {
	gw := &fakeGateway{remote: abc()}
	s := preference.NewStore(gw)
	assert.Equal(t, preference.Unloaded, s.State())

	set, err := s.Load(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, abc(), set)
	assert.Equal(t, preference.Loaded, s.State())

	committed, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, abc(), committed.Descriptors())
}

func TestStoreLoadRequiresCredential(t *testing.T) {
	s := preference.NewStore(&fakeGateway{})
	_, err := s.Load(context.Background(), "")
	assert.ErrorIs(t, err, preference.ErrNoCredential)
	assert.Equal(t, preference.Unloaded, s.State())
}

func TestStoreLoadFailure(t *testing.T) {
	gw := &fakeGateway{loadErr: fmt.Errorf("%w: boom", preference.ErrNetwork)}
	s := preference.NewStore(gw)

	_, err := s.Load(context.Background(), cred)
	assert.ErrorIs(t, err, preference.ErrNetwork)
	assert.Equal(t, preference.Failed, s.State())
	assert.ErrorIs(t, s.Err(), preference.ErrNetwork)

	_, ok := s.Committed()
	assert.False(t, ok)
}

func TestStoreLoadRejectsDuplicates(t *testing.T) {
	dup := preference.Set{{ID: "1", Label: "x"}, {ID: "1", Label: "y"}}
	s := preference.NewStore(&fakeGateway{remote: dup})

	_, err := s.Load(context.Background(), cred)
	assert.ErrorIs(t, err, preference.ErrMalformed)
	assert.ErrorIs(t, err, preference.ErrDuplicateID)
}

func (g *fakeGateway) loadsEntered() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entered
}

func TestStoreStaleLoadIsDiscarded(t *testing.T) {
	gw := &fakeGateway{blockLoad: make(chan preference.Set)}
	s := preference.NewStore(gw)

	first := make(chan error, 1)
	go func() {
		_, err := s.Load(context.Background(), cred)
		first <- err
	}()
	require.Eventually(t, func() bool { return gw.loadsEntered() == 1 }, time.Second, time.Millisecond)

	type result struct {
		set preference.Set
		err error
	}
	second := make(chan result, 1)
	go func() {
		set, err := s.Load(context.Background(), cred)
		second <- result{set, err}
	}()
	require.Eventually(t, func() bool { return gw.loadsEntered() == 2 }, time.Second, time.Millisecond)

	gw.blockLoad <- preference.Set{{ID: "x", Label: "X", IsVisible: true}}
	gw.blockLoad <- preference.Set{{ID: "y", Label: "Y", IsVisible: true}}

	assert.ErrorIs(t, <-first, preference.ErrStale)
	latest := <-second
	require.NoError(t, latest.err)

	committed, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, latest.set, committed.Descriptors())
	assert.Equal(t, preference.Loaded, s.State())
}

func TestStoreCommit(t *testing.T) {
	gw := &fakeGateway{remote: abc()}
	s := preference.NewStore(gw)
	_, err := s.Load(context.Background(), cred)
	require.NoError(t, err)

	edited, err := preference.ToggleVisibility(abc(), 1)
	require.NoError(t, err)

	committed, err := s.Commit(context.Background(), edited, cred)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), committed.Version())
	assert.Equal(t, edited, committed.Descriptors())
	assert.Equal(t, preference.Loaded, s.State())
	assert.Equal(t, 1, gw.saves)

	// The committed value does not alias the caller's working copy.
	edited[0].Label = "mutated"
	assert.Equal(t, "A", committed.Descriptors()[0].Label)
}

func TestStoreCommitValidates(t *testing.T) {
	gw := &fakeGateway{}
	s := preference.NewStore(gw)

	_, err := s.Commit(context.Background(), preference.Set{}, cred)
	assert.ErrorIs(t, err, preference.ErrEmptySet)

	dup := preference.Set{{ID: "1"}, {ID: "1"}}
	_, err = s.Commit(context.Background(), dup, cred)
	assert.ErrorIs(t, err, preference.ErrDuplicateID)

	_, err = s.Commit(context.Background(), abc(), "")
	assert.ErrorIs(t, err, preference.ErrNoCredential)
	assert.Zero(t, gw.saves)
}

func TestStoreCommitFailureIsAtomic(t *testing.T) {
	gw := &fakeGateway{remote: abc()}
	s := preference.NewStore(gw)
	_, err := s.Load(context.Background(), cred)
	require.NoError(t, err)
	before, _ := s.Committed()

	working, err := preference.MoveDown(abc(), 0)
	require.NoError(t, err)
	snapshot := working.Clone()

	gw.saveErr = fmt.Errorf("%w: connection reset", preference.ErrNetwork)
	_, err = s.Commit(context.Background(), working, cred)
	assert.ErrorIs(t, err, preference.ErrNetwork)
	assert.Equal(t, preference.Failed, s.State())

	assert.Equal(t, snapshot, working)
	after, _ := s.Committed()
	assert.Equal(t, before, after)

	// Retrying after the failure clears succeeds with the same working copy.
	gw.saveErr = nil
	committed, err := s.Commit(context.Background(), working, cred)
	require.NoError(t, err)
	assert.Equal(t, working, committed.Descriptors())
}

func TestStoreRejectsConcurrentCommit(t *testing.T) {
	gw := &fakeGateway{blockSave: make(chan struct{})}
	s := preference.NewStore(gw)

	done := make(chan error, 1)
	go func() {
		_, err := s.Commit(context.Background(), abc(), cred)
		done <- err
	}()
	require.Eventually(t, func() bool { return s.State() == preference.Committing }, time.Second, time.Millisecond)

	_, err := s.Commit(context.Background(), abc(), cred)
	assert.ErrorIs(t, err, preference.ErrCommitInFlight)

	close(gw.blockSave)
	require.NoError(t, <-done)
	assert.Equal(t, preference.Loaded, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "committing", preference.Committing.String())
	assert.Equal(t, "error", preference.Failed.String())
}

func TestStoreLoadStartedBeforeCommitIsDiscarded(t *testing.T) {
	gw := &fakeGateway{blockLoad: make(chan preference.Set)}
	s := preference.NewStore(gw)

	loaded := make(chan error, 1)
	go func() {
		_, err := s.Load(context.Background(), cred)
		loaded <- err
	}()
	require.Eventually(t, func() bool { return gw.loadsEntered() == 1 }, time.Second, time.Millisecond)

	newer := preference.Set{{ID: "b", Label: "B", IsVisible: true}}
	committed, err := s.Commit(context.Background(), newer, cred)
	require.NoError(t, err)

	// The load read the remote before the commit landed.
	gw.blockLoad <- preference.Set{{ID: "a", Label: "A", IsVisible: true}}
	assert.ErrorIs(t, <-loaded, preference.ErrStale)

	current, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, committed, current)
	assert.Equal(t, newer, current.Descriptors())
	assert.Equal(t, uint64(1), current.Version())
	assert.Equal(t, preference.Loaded, s.State())
}

func TestStoreLoadDuringCommitKeepsBaseline(t *testing.T) {
	gw := &fakeGateway{remote: abc(), blockSave: make(chan struct{})}
	s := preference.NewStore(gw)

	newer := preference.Set{{ID: "b", Label: "B", IsVisible: true}}
	done := make(chan error, 1)
	go func() {
		_, err := s.Commit(context.Background(), newer, cred)
		done <- err
	}()
	require.Eventually(t, func() bool { return s.State() == preference.Committing }, time.Second, time.Millisecond)

	_, err := s.Load(context.Background(), cred)
	assert.ErrorIs(t, err, preference.ErrStale)
	_, ok := s.Committed()
	assert.False(t, ok)
	assert.Equal(t, preference.Committing, s.State())

	close(gw.blockSave)
	require.NoError(t, <-done)

	current, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, newer, current.Descriptors())
	assert.Equal(t, uint64(1), current.Version())
}

func TestStoreFailedLoadAfterCommitKeepsCommitted(t *testing.T) {
	gw := &fakeGateway{}
	s := preference.NewStore(gw)
	committed, err := s.Commit(context.Background(), abc(), cred)
	require.NoError(t, err)

	gw.mu.Lock()
	gw.loadErr = fmt.Errorf("%w: boom", preference.ErrNetwork)
	gw.mu.Unlock()
	_, err = s.Load(context.Background(), cred)
	assert.ErrorIs(t, err, preference.ErrNetwork)
	assert.Equal(t, preference.Failed, s.State())

	current, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, committed, current)

	gw.mu.Lock()
	gw.loadErr = nil
	gw.remote = preference.Set{{ID: "1", Label: "x"}, {ID: "1", Label: "y"}}
	gw.mu.Unlock()
	_, err = s.Load(context.Background(), cred)
	assert.ErrorIs(t, err, preference.ErrMalformed)

	current, ok = s.Committed()
	require.True(t, ok)
	assert.Equal(t, committed, current)
}
