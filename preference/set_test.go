package preference_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widget-dashboard/preference"
)

func abc() preference.Set {
	return preference.Set{
		{ID: "a", Label: "A", IsVisible: true},
		{ID: "b", Label: "B", IsVisible: false},
		{ID: "c", Label: "C", IsVisible: true},
	}
}

func TestMoveDownThenUpRoundTrip(t *testing.T) {
	set := abc()

	down, err := preference.MoveDown(set, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, down.IDs())

	up, err := preference.MoveUp(down, 1)
	require.NoError(t, err)
	assert.Equal(t, set, up)
}

func TestMoveBoundariesAreNoOps(t *testing.T) {
	set := abc()

	up, err := preference.MoveUp(set, 0)
	require.NoError(t, err)
	assert.Equal(t, set, up)

	down, err := preference.MoveDown(set, len(set)-1)
	require.NoError(t, err)
	assert.Equal(t, set, down)
}

func TestMoveDoesNotAliasInput(t *testing.T) {
	set := abc()
	out, err := preference.MoveDown(set, 1)
	require.NoError(t, err)

	out[0].Label = "changed"
	assert.Equal(t, "A", set[0].Label)
	assert.Equal(t, []string{"a", "b", "c"}, set.IDs())
}

func TestToggleVisibilityChangesOnlyOneField(t *testing.T) {
	set := abc()
	out, err := preference.ToggleVisibility(set, 1)
	require.NoError(t, err)

	require.Len(t, out, len(set))
	for i := range set {
		if i == 1 {
			assert.Equal(t, set[i].ID, out[i].ID)
			assert.Equal(t, set[i].Label, out[i].Label)
			assert.NotEqual(t, set[i].IsVisible, out[i].IsVisible)
			continue
		}
		assert.Equal(t, set[i], out[i])
	}
}

func TestOutOfRange(t *testing.T) {
	set := abc()
	for _, idx := range []int{-1, 3, 100} {
		_, err := preference.MoveUp(set, idx)
		assert.ErrorIs(t, err, preference.ErrOutOfRange)
		_, err = preference.MoveDown(set, idx)
		assert.ErrorIs(t, err, preference.ErrOutOfRange)
		_, err = preference.ToggleVisibility(set, idx)
		assert.ErrorIs(t, err, preference.ErrOutOfRange)
	}

	_, err := preference.MoveUp(preference.Set{}, 0)
	assert.ErrorIs(t, err, preference.ErrOutOfRange)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, abc().Validate())
	assert.ErrorIs(t, preference.Set{}.Validate(), preference.ErrEmptySet)

	dup := append(abc(), preference.Descriptor{ID: "a", Label: "again"})
	assert.ErrorIs(t, dup.Validate(), preference.ErrDuplicateID)

	noID := preference.Set{{Label: "nameless"}}
	assert.ErrorIs(t, noID.Validate(), preference.ErrMalformed)
}

func TestCloneOfNilIsEmpty(t *testing.T) {
	var s preference.Set
	c := s.Clone()
	assert.NotNil(t, c)
	assert.Empty(t, c)
}
