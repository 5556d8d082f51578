package collection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

// SortKey selects the order of the collection view.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByManaCost SortKey = "mana_cost" // Converted mana cost
	SortByType     SortKey = "type"
	SortByRarity   SortKey = "rarity"
)

// SortKeys lists the supported sort keys.
func SortKeys() []SortKey {
	return []SortKey{SortByName, SortByManaCost, SortByType, SortByRarity}
}

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// sortValue is either textual or numeric depending on the key.
type sortValue struct {
	text string
	num  float64
}

func (v sortValue) less(o sortValue) bool {
	if v.text != o.text {
		return v.text < o.text
	}
	return v.num < o.num
}

// SortKey returns the active sort key.
func (r *Registry) SortKey() SortKey {
	return r.sortKey
}

// FilterQuery returns the active filter query.
func (r *Registry) FilterQuery() string {
	return r.query
}

// View returns the owned entries matching the filter query, in sort order.
func (r *Registry) View() []*Entry {
	out := make([]*Entry, len(r.view))
	copy(out, r.view)
	return out
}

// SetSortKey changes the view order. The owned set is not modified. If a
// card cannot be ranked by key, the previous key stays active.
func (r *Registry) SetSortKey(ctx context.Context, key SortKey) error {
	if _, err := ParseSortKey(string(key)); err != nil {
		return err
	}

	sorted, view, err := r.compute(ctx, r.entries, key, r.query)
	if err != nil {
		return err
	}

	r.sortKey = key
	r.entries = sorted
	r.view = view
	return nil
}

// SetFilterQuery restricts the view to entries whose identifier text
// contains text. Matching is case sensitive; the empty query matches all.
func (r *Registry) SetFilterQuery(ctx context.Context, text string) error {
	sorted, view, err := r.compute(ctx, r.entries, r.sortKey, text)
	if err != nil {
		return err
	}

	r.query = text
	r.entries = sorted
	r.view = view
	return nil
}

func (r *Registry) refresh(ctx context.Context) error {
	sorted, view, err := r.compute(ctx, r.entries, r.sortKey, r.query)
	if err != nil {
		return fmt.Errorf("refresh collection view: %w", err)
	}
	r.entries = sorted
	r.view = view
	return nil
}

// compute stable sorts entries by key and filters them by query. Entries
// with equal keys keep their previous relative order.
func (r *Registry) compute(ctx context.Context, entries []*Entry, key SortKey, query string) ([]*Entry, []*Entry, error) {
	values := make(map[*Entry]sortValue, len(entries))
	for _, e := range entries {
		v, err := r.deriveKey(ctx, e.Record, key)
		if err != nil {
			return nil, nil, err
		}
		values[e] = v
	}

	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return values[sorted[i]].less(values[sorted[j]])
	})

	if query == "" {
		view := make([]*Entry, len(sorted))
		copy(view, sorted)
		return sorted, view, nil
	}

	view := make([]*Entry, 0, len(sorted))
	for _, e := range sorted {
		text, err := r.arena.IdentifierText(ctx, e.Record)
		if err != nil {
			return nil, nil, err
		}
		if strings.Contains(text, query) {
			view = append(view, e)
		}
	}
	return sorted, view, nil
}

func (r *Registry) deriveKey(ctx context.Context, rec *cards.Record, key SortKey) (sortValue, error) {
	switch key {
	case SortByName:
		name, err := r.arena.DisplayName(ctx, rec)
		if err != nil {
			return sortValue{}, err
		}
		return sortValue{text: name}, nil
	case SortByManaCost:
		return sortValue{num: rec.CMC}, nil
	case SortByType:
		return sortValue{text: rec.Type}, nil
	case SortByRarity:
		rank, err := cards.RarityRank(rec)
		if err != nil {
			return sortValue{}, err
		}
		return sortValue{num: float64(rank)}, nil
	default:
		return sortValue{}, fmt.Errorf("unknown sort key %q", key)
	}
}
