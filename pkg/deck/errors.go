package deck

import (
	"errors"
	"fmt"

	"github.com/openlabollioules/ACRA/pkg/deck/opc"
)

// ErrCorruptPackage indicates the container is not a readable zip package.
// Loading aborts; nothing of the document is recovered.
var ErrCorruptPackage = opc.ErrCorruptPackage

// ErrPartNotFound indicates a named part is missing from the package.
// Callers substitute default content and continue.
var ErrPartNotFound = opc.ErrPartNotFound

// ErrOutOfRange indicates an edit addressed a coordinate that does not
// resolve to an existing entity. The document is left unchanged.
var ErrOutOfRange = errors.New("coordinate out of range")

// MalformedSlideError reports a slide whose XML did not match the expected
// shape. The slide degrades to a placeholder; the rest of the document
// still loads.
type MalformedSlideError struct {
	Part string
	Err  error
}

func (e *MalformedSlideError) Error() string {
	return fmt.Sprintf("malformed slide %q: %v", e.Part, e.Err)
}

func (e *MalformedSlideError) Unwrap() error {
	return e.Err
}

// OutOfRangeError carries the coordinate that failed to resolve.
type OutOfRangeError struct {
	Slide, Item, Row, Col int
	What                  string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: no entity at slide=%d item=%d row=%d col=%d",
		e.What, e.Slide, e.Item, e.Row, e.Col)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// UnresolvedAnnotationError reports alert phrases that could not be
// located verbatim during markup injection. Logged, never fatal; the text
// is left unmarked for those phrases.
type UnresolvedAnnotationError struct {
	Phrases []string
}

func (e *UnresolvedAnnotationError) Error() string {
	return fmt.Sprintf("markup injection left %d phrase(s) unmarked: %v", len(e.Phrases), e.Phrases)
}
