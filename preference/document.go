package preference

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Document is the wire shape of an arrangement: {"components": [...]}.
type Document struct {
	Components []Descriptor `json:"components"`
}

// wireDescriptor uses pointers so a missing field can be told apart from a
// zero value.
type wireDescriptor struct {
	ID        string  `json:"id" validate:"required"`
	Label     *string `json:"label" validate:"required"`
	IsVisible *bool   `json:"isVisible" validate:"required"`
}

type wireDocument struct {
	Components []wireDescriptor `json:"components" validate:"dive"`
}

// NewDocument wraps s for encoding. The component list is never null.
func NewDocument(s Set) Document {
	return Document{Components: s.Clone()}
}

// DecodeDocument reads an arrangement and fails closed: a descriptor with a
// missing field or a repeated id is ErrMalformed. An absent or empty component
// list decodes to an empty set.
func DecodeDocument(r io.Reader) (Set, error) {
	var doc wireDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return Set{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	set := make(Set, len(doc.Components))
	for i, c := range doc.Components {
		set[i] = Descriptor{ID: c.ID, Label: *c.Label, IsVisible: *c.IsVisible}
	}
	if err := set.checkIDs(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return set, nil
}
