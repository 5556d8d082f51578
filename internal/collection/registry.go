// Package collection tracks owned card quantities and the sorted, filtered
// view shown to the user.
package collection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

// Entry is an owned card and how many copies are owned. Amount is never
// zero: an entry reaching zero is removed.
type Entry struct {
	Record *cards.Record
	Amount int
}

// Identity returns the identity of the owned printing.
func (e *Entry) Identity() cards.Identity {
	return e.Record.Identity
}

// Outcome tells a caller what a mutation did to an entry.
type Outcome int

const (
	Unchanged Outcome = iota
	Mutated
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "Unchanged"
	case Mutated:
		return "Mutated"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Confirmer is asked before the last copy of a card is removed.
type Confirmer func(entry *Entry) bool

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Arena   *cards.Arena
	Lookup  cards.Lookup
	SortKey SortKey
	Logger  *slog.Logger
}

// Registry owns the collection entries, at most one per identity, and keeps
// a derived view of them filtered by a query and sorted by a key. The view
// is recomputed after every change and never treated as ground truth.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	arena  *cards.Arena
	lookup cards.Lookup
	logger *slog.Logger

	entries []*Entry // owned set, in last sorted order
	index   map[cards.Identity]*Entry

	sortKey SortKey
	query   string
	view    []*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.Lookup == nil {
		return nil, fmt.Errorf("lookup is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Arena == nil {
		config.Arena = cards.NewArena(cards.ArenaConfig{Lookup: config.Lookup, Logger: config.Logger})
	}
	if config.SortKey == "" {
		config.SortKey = SortByName
	}
	if _, err := ParseSortKey(string(config.SortKey)); err != nil {
		return nil, err
	}

	return &Registry{
		arena:   config.Arena,
		lookup:  config.Lookup,
		logger:  config.Logger,
		index:   make(map[cards.Identity]*Entry),
		sortKey: config.SortKey,
	}, nil
}

// Arena returns the record arena backing the registry.
func (r *Registry) Arena() *cards.Arena {
	return r.arena
}

// Len returns the number of owned entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns the owned entries, independent of the current filter.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Entry returns the owned entry for id.
func (r *Registry) Entry(id cards.Identity) (*Entry, bool) {
	e, ok := r.index[id]
	return e, ok
}

// AddByIdentifier adds one copy of the printing identified by text. An owned
// printing is incremented without querying the card database. Otherwise the
// database is queried, retrying once with face "a" so flip and split cards
// can be entered by their shared number.
func (r *Registry) AddByIdentifier(ctx context.Context, text string) (*Entry, error) {
	id, err := ParseIdentifier(text)
	if err != nil {
		return nil, err
	}

	if e, ok := r.index[id]; ok {
		e.Amount++
		return e, r.refresh(ctx)
	}

	results, err := r.where(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 && !id.IsMultiFaced() {
		faceA := id.WithFace(cards.FaceA)
		r.logger.Info("no card found, retrying as multi-faced card",
			"identifier", id.String(),
			"retry", faceA.String())

		results, err = r.where(ctx, faceA)
		if err != nil {
			return nil, err
		}
	}

	switch len(results) {
	case 0:
		return nil, &NotFoundError{Identity: id}
	case 1:
		return r.AddRecord(ctx, results[0])
	default:
		return nil, &AmbiguousResultError{Identity: id, Candidates: results}
	}
}

func (r *Registry) where(ctx context.Context, id cards.Identity) ([]cards.Record, error) {
	results, err := r.lookup.Where(ctx, cards.Filter{
		Language: r.arena.Language(),
		Set:      id.SetCode,
		Number:   id.Number,
	})
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", id, err)
	}
	return results, nil
}

// AddRecord adds one copy of rec, merging with an owned entry of the same
// identity. It is also how a caller resolves an AmbiguousResultError.
func (r *Registry) AddRecord(ctx context.Context, rec cards.Record) (*Entry, error) {
	if e, ok := r.index[rec.Identity]; ok {
		e.Amount++
		return e, r.refresh(ctx)
	}

	_, held := r.arena.Get(rec.Identity)
	stored := r.arena.Intern(rec)

	// Resolve everything the view needs before taking ownership so a
	// failed twin lookup or bad rarity leaves the registry untouched.
	if _, err := r.deriveKey(ctx, stored, r.sortKey); err != nil {
		if !held {
			r.arena.Forget(rec.Identity)
		}
		return nil, err
	}
	if _, err := r.arena.IdentifierText(ctx, stored); err != nil {
		if !held {
			r.arena.Forget(rec.Identity)
		}
		return nil, err
	}

	e := &Entry{Record: stored, Amount: 1}
	r.entries = append(r.entries, e)
	r.index[rec.Identity] = e

	r.logger.Debug("added card", "card", rec.Identity.String(), "entries", len(r.entries))
	return e, r.refresh(ctx)
}

// Increment adds one copy of an owned card.
func (r *Registry) Increment(ctx context.Context, id cards.Identity) (Outcome, error) {
	e, ok := r.index[id]
	if !ok {
		return Unchanged, ErrNoEntry
	}
	e.Amount++
	return Mutated, r.refresh(ctx)
}

// Decrement removes one copy of an owned card. Removing the last copy drops
// the entry, but only if confirm approves it.
func (r *Registry) Decrement(ctx context.Context, id cards.Identity, confirm Confirmer) (Outcome, error) {
	e, ok := r.index[id]
	if !ok {
		return Unchanged, ErrNoEntry
	}

	if e.Amount > 1 {
		e.Amount--
		return Mutated, r.refresh(ctx)
	}

	if confirm == nil || !confirm(e) {
		return Unchanged, nil
	}

	r.remove(id)
	r.logger.Debug("removed card", "card", id.String(), "entries", len(r.entries))
	return Removed, r.refresh(ctx)
}

func (r *Registry) remove(id cards.Identity) {
	delete(r.index, id)
	for i, e := range r.entries {
		if e.Record.Identity == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
}

// Twins returns the resolved other halves of owned split cards that are not
// owned themselves, in entry order. Passing them back to Replace restores
// the twin links without remote calls.
func (r *Registry) Twins() []cards.Record {
	var twins []cards.Record
	for _, e := range r.entries {
		if !e.Record.IsMultiFaced() {
			continue
		}
		twin, ok := r.arena.Linked(e.Identity())
		if !ok {
			continue
		}
		if _, owned := r.index[twin.Identity]; owned {
			continue
		}
		twins = append(twins, *twin)
	}
	return twins
}

// Replace swaps the owned set for entries, merging duplicate identities.
// Records in twins are held as known halves of split cards so their names
// resolve locally. On error the registry keeps its previous contents.
func (r *Registry) Replace(ctx context.Context, entries []Entry, twins ...cards.Record) error {
	for _, twin := range twins {
		if twin.IsMultiFaced() {
			r.arena.Intern(twin)
		}
	}

	next := make([]*Entry, 0, len(entries))
	index := make(map[cards.Identity]*Entry, len(entries))

	for _, in := range entries {
		if in.Record == nil {
			return fmt.Errorf("collection entry without card")
		}
		if in.Amount < 1 {
			return fmt.Errorf("card %s has invalid amount %d", in.Record.Identity, in.Amount)
		}
		if e, dup := index[in.Record.Identity]; dup {
			e.Amount += in.Amount
			continue
		}
		e := &Entry{Record: r.arena.Intern(*in.Record), Amount: in.Amount}
		next = append(next, e)
		index[in.Record.Identity] = e
	}

	sorted, view, err := r.compute(ctx, next, r.sortKey, r.query)
	if err != nil {
		return err
	}

	r.entries = sorted
	r.index = index
	r.view = view
	return nil
}

// Label returns the text shown for an entry: its display name, followed by
// the owned amount when more than one copy is owned.
func (r *Registry) Label(ctx context.Context, e *Entry) (string, error) {
	name, err := r.arena.DisplayName(ctx, e.Record)
	if err != nil {
		return "", err
	}
	if e.Amount > 1 {
		return fmt.Sprintf("%s (x%d)", name, e.Amount), nil
	}
	return name, nil
}
