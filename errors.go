package draft

import (
	"errors"
	"fmt"
)

// ErrDraft is the base classification for every error raised by this
// package. errors.Is(err, ErrDraft) holds for all of the errors below.
var ErrDraft = errors.New("draft")

var (
	// ErrRevoked reports access to a draft whose owning scope has closed.
	ErrRevoked = fmt.Errorf("%w: revoked", ErrDraft)

	// ErrImmutable reports a mutation attempt on a locked value.
	ErrImmutable = fmt.Errorf("%w: immutable", ErrDraft)

	// ErrCircularReference reports a source graph cycle, or a reconcile
	// walk exceeding the configured maximum depth.
	ErrCircularReference = fmt.Errorf("%w: circular reference", ErrDraft)

	// ErrNotDraftable reports a value with no draftable representation.
	ErrNotDraftable = fmt.Errorf("%w: not draftable", ErrDraft)

	// ErrPatch reports an invariant violation during patch generation or
	// application.
	ErrPatch = fmt.Errorf("%w: patch", ErrDraft)
)
