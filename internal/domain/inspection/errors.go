package inspection

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("inspection not found")
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrInvalidTransition covers every user-correctable lifecycle
	// rejection; the wrapped variants below let handlers tell the caller
	// what to fix.
	ErrInvalidTransition = errors.New("invalid inspection transition")

	ErrChecklistIncomplete = fmt.Errorf("%w: checklist incomplete", ErrInvalidTransition)
	ErrPhotoGate           = fmt.Errorf("%w: required photos missing", ErrInvalidTransition)
	ErrImmutable           = fmt.Errorf("%w: inspection is finalized", ErrInvalidTransition)

	// ErrConstraintViolation means a duplicate row outside the intended
	// upsert paths. It is a logic bug and fails loudly.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrReworkCeilingReached is an escalation: the verdict stands but no
	// further rework inspection is spawned.
	ErrReworkCeilingReached = errors.New("rework ceiling reached")
)
