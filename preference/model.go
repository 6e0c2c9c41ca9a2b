package preference

import "errors"

// Descriptor is the presentation state of one dashboard widget.
type Descriptor struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	IsVisible bool   `json:"isVisible"`
}

// Set is an ordered arrangement of descriptors. A descriptor's position is its
// index; order is render order.
type Set []Descriptor

// Credential is the opaque bearer token attached to every remote call.
type Credential string

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNetwork        = errors.New("network failure")
	ErrMalformed      = errors.New("malformed preferences")
	ErrOutOfRange     = errors.New("index out of range")
	ErrDuplicateID    = errors.New("duplicate widget id")
	ErrEmptySet       = errors.New("empty preference set")
	ErrNoCredential   = errors.New("no credential")
	ErrCommitInFlight = errors.New("commit already in flight")
	ErrStale          = errors.New("superseded by a newer load or commit")
)

// Committed is a Set the remote store has acknowledged. Only Store creates
// non-zero values, so anything holding one knows it was persisted.
type Committed struct {
	set     Set
	version uint64
}

// Descriptors returns a copy of the committed arrangement.
func (c Committed) Descriptors() Set {
	return c.set.Clone()
}

// Version increases with every acknowledged write made through the same Store.
func (c Committed) Version() uint64 {
	return c.version
}

// Len is the number of descriptors, visible or not.
func (c Committed) Len() int {
	return len(c.set)
}
