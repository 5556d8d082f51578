package cards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter selects printings on the remote card database. Set and Number are
// exact matches; Language selects which localized fields are returned.
type Filter struct {
	Language string
	Set      string
	Number   string
}

// Lookup queries the remote card database.
type Lookup interface {
	Where(ctx context.Context, filter Filter) ([]Record, error)
}

// TwinNotFoundError is returned when the other half of a multi-faced
// printing cannot be found remotely.
type TwinNotFoundError struct {
	Identity Identity
}

// Error implements the error interface for TwinNotFoundError.
func (e *TwinNotFoundError) Error() string {
	return fmt.Sprintf("no twin found for multi-faced card %s", e.Identity)
}

// ArenaConfig configures an Arena.
type ArenaConfig struct {
	Lookup   Lookup
	Language string // Remote language name, e.g. "French". Empty means canonical names.
	Logger   *slog.Logger
}

// Arena holds every record known to the session, indexed by identity.
// Twin relations are stored as identity pairs so a split card's halves can
// refer to each other without owning each other.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	records  map[Identity]*Record
	twins    map[Identity]Identity
	lookup   Lookup
	language string
	lower    cases.Caser
	logger   *slog.Logger
}

// NewArena creates an empty arena.
func NewArena(config ArenaConfig) *Arena {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Arena{
		records:  make(map[Identity]*Record),
		twins:    make(map[Identity]Identity),
		lookup:   config.Lookup,
		language: config.Language,
		lower:    cases.Lower(language.Und),
		logger:   config.Logger,
	}
}

// Language returns the remote language name used for localized fields.
func (a *Arena) Language() string {
	return a.language
}

// Intern stores rec unless a record with the same identity is already held,
// and returns the canonical instance.
func (a *Arena) Intern(rec Record) *Record {
	if existing, ok := a.records[rec.Identity]; ok {
		return existing
	}
	stored := rec
	a.records[rec.Identity] = &stored
	return &stored
}

// Get returns the record held for id.
func (a *Arena) Get(id Identity) (*Record, bool) {
	rec, ok := a.records[id]
	return rec, ok
}

// Len returns the number of records held.
func (a *Arena) Len() int {
	return len(a.records)
}

// Forget drops the record for id and unlinks it from its twin.
func (a *Arena) Forget(id Identity) {
	if twin, ok := a.twins[id]; ok {
		delete(a.twins, twin)
		delete(a.twins, id)
	}
	delete(a.records, id)
}

// Reset drops every record and twin link.
func (a *Arena) Reset() {
	a.records = make(map[Identity]*Record)
	a.twins = make(map[Identity]Identity)
}

// Twin returns the other half of a multi-faced record, fetching it from the
// remote database on first access. The link is memoized in both directions.
func (a *Arena) Twin(ctx context.Context, rec *Record) (*Record, error) {
	sibling, ok := rec.Sibling()
	if !ok {
		return nil, fmt.Errorf("card %s is not multi-faced", rec.Identity)
	}

	if twinID, linked := a.twins[rec.Identity]; linked {
		if twin, held := a.records[twinID]; held {
			return twin, nil
		}
	}

	if twin, held := a.records[sibling]; held {
		a.link(rec.Identity, sibling)
		return twin, nil
	}

	if a.lookup == nil {
		return nil, &TwinNotFoundError{Identity: rec.Identity}
	}

	results, err := a.lookup.Where(ctx, Filter{
		Language: a.language,
		Set:      sibling.SetCode,
		Number:   sibling.Number,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve twin of %s: %w", rec.Identity, err)
	}

	a.logger.Debug("resolved twin",
		"card", rec.Identity.String(),
		"twin", sibling.String(),
		"results", len(results))

	for _, candidate := range results {
		if candidate.Identity == sibling {
			twin := a.Intern(candidate)
			a.link(rec.Identity, sibling)
			return twin, nil
		}
	}
	return nil, &TwinNotFoundError{Identity: rec.Identity}
}

func (a *Arena) link(x, y Identity) {
	a.twins[x] = y
	a.twins[y] = x
}

// Linked returns the twin already resolved for id without consulting the
// remote database.
func (a *Arena) Linked(id Identity) (*Record, bool) {
	twinID, ok := a.twins[id]
	if !ok {
		return nil, false
	}
	twin, held := a.records[twinID]
	return twin, held
}

// DisplayName returns the localized name of rec. Multi-faced records are
// shown as "<face a> // <face b>" whichever half rec is.
func (a *Arena) DisplayName(ctx context.Context, rec *Record) (string, error) {
	if !rec.IsMultiFaced() {
		return rec.LocalizedName(a.language), nil
	}

	twin, err := a.Twin(ctx, rec)
	if err != nil {
		return "", err
	}

	first, second := rec, twin
	if rec.Face() == FaceB {
		first, second = twin, rec
	}
	return first.LocalizedName(a.language) + " // " + second.LocalizedName(a.language), nil
}

// IdentifierText returns the lower-cased text searched by collection
// filters: display name, subtypes, type line, supertypes, watermark and
// rules text. Missing fields contribute empty strings.
func (a *Arena) IdentifierText(ctx context.Context, rec *Record) (string, error) {
	name, err := a.DisplayName(ctx, rec)
	if err != nil {
		return "", err
	}

	parts := []string{
		name,
		strings.Join(rec.Subtypes, " "),
		rec.Type,
		strings.Join(rec.Supertypes, " "),
		rec.Watermark,
		rec.Text,
	}
	return a.lower.String(strings.Join(parts, " ")), nil
}
