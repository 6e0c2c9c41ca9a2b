package preference

import "fmt"

// Clone returns a copy that shares no memory with s. A nil set clones to an
// empty, non-nil one so it encodes as [] rather than null.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// IDs lists descriptor ids in order.
func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, d := range s {
		ids[i] = d.ID
	}
	return ids
}

// Validate checks the invariants required before a set may be committed:
// at least one descriptor, no empty ids and no id used twice.
func (s Set) Validate() error {
	if len(s) == 0 {
		return ErrEmptySet
	}
	return s.checkIDs()
}

func (s Set) checkIDs() error {
	seen := make(map[string]bool, len(s))
	for i, d := range s {
		if d.ID == "" {
			return fmt.Errorf("%w: descriptor %d has no id", ErrMalformed, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// MoveUp swaps the descriptors at index-1 and index. Moving the first
// descriptor up returns an identical copy.
func MoveUp(s Set, index int) (Set, error) {
	if err := checkIndex(s, index); err != nil {
		return nil, err
	}
	out := s.Clone()
	if index == 0 {
		return out, nil
	}
	out[index-1], out[index] = out[index], out[index-1]
	return out, nil
}

// MoveDown swaps the descriptors at index and index+1. Moving the last
// descriptor down returns an identical copy.
func MoveDown(s Set, index int) (Set, error) {
	if err := checkIndex(s, index); err != nil {
		return nil, err
	}
	out := s.Clone()
	if index == len(s)-1 {
		return out, nil
	}
	out[index], out[index+1] = out[index+1], out[index]
	return out, nil
}

// ToggleVisibility flips IsVisible at index and leaves everything else alone.
func ToggleVisibility(s Set, index int) (Set, error) {
	if err := checkIndex(s, index); err != nil {
		return nil, err
	}
	out := s.Clone()
	out[index].IsVisible = !out[index].IsVisible
	return out, nil
}

func checkIndex(s Set, index int) error {
	if index < 0 || index >= len(s) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(s))
	}
	return nil
}
