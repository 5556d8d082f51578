package collection

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

// Mutation changes the owned entry identified by id.
type Mutation func(ctx context.Context, id cards.Identity) (Outcome, error)

// RowRenderer redraws a single row of the view.
type RowRenderer func(row int, label string)

// Selected returns the view entry at row.
func (r *Registry) Selected(row int) (*Entry, error) {
	if row < 0 || row >= len(r.view) {
		return nil, fmt.Errorf("selection %d out of range (view has %d rows)", row, len(r.view))
	}
	return r.view[row], nil
}

// UpdateRow applies mutate to the entry shown at row, then redraws that row
// through render unless the entry was removed or left unchanged.
func (r *Registry) UpdateRow(ctx context.Context, row int, mutate Mutation, render RowRenderer) (Outcome, error) {
	e, err := r.Selected(row)
	if err != nil {
		return Unchanged, err
	}

	id := e.Identity()
	outcome, err := mutate(ctx, id)
	if err != nil {
		return outcome, err
	}
	if outcome != Mutated || render == nil {
		return outcome, nil
	}

	// Amounts do not affect order or filtering, but look the row up again
	// rather than rely on that.
	for i, v := range r.view {
		if v.Identity() == id {
			label, err := r.Label(ctx, v)
			if err != nil {
				return outcome, err
			}
			render(i, label)
			break
		}
	}
	return outcome, nil
}

// IncrementMutation adapts Increment to a Mutation.
func (r *Registry) IncrementMutation() Mutation {
	return r.Increment
}

// DecrementMutation adapts Decrement to a Mutation using confirm.
func (r *Registry) DecrementMutation(confirm Confirmer) Mutation {
	return func(ctx context.Context, id cards.Identity) (Outcome, error) {
		return r.Decrement(ctx, id, confirm)
	}
}
