package collection

import (
	"errors"
	"fmt"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

// ErrNoEntry is returned when an operation targets a card that is not owned.
var ErrNoEntry = errors.New("card is not in the collection")

// ValidationError reports malformed identifier text.
type ValidationError struct {
	Input  string
	Reason string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid card identifier %q: %s", e.Input, e.Reason)
}

// NotFoundError reports an identifier the card database has no printing for,
// including after the flip card retry.
type NotFoundError struct {
	Identity cards.Identity
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no card found for %s", e.Identity)
}

// AmbiguousResultError reports several printings matching one identifier.
// The caller picks one of Candidates and adds it with AddRecord.
type AmbiguousResultError struct {
	Identity   cards.Identity
	Candidates []cards.Record
}

// Error implements the error interface for AmbiguousResultError.
func (e *AmbiguousResultError) Error() string {
	return fmt.Sprintf("%d cards match %s", len(e.Candidates), e.Identity)
}
