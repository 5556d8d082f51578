package cards

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	records []Record
	calls   int
}

func (f *fakeLookup) Where(_ context.Context, filter Filter) ([]Record, error) {
	f.calls++
	var out []Record
	for _, r := range f.records {
		if r.SetCode == filter.Set && r.Number == filter.Number {
			out = append(out, r)
		}
	}
	return out, nil
}

func struggleSurvive() (Record, Record) {
	a := Record{
		Identity: Identity{"WAR", "56a"},
		Name:     "Struggle",
		Type:     "Instant",
		Rarity:   "Uncommon",
		Text:     "Struggle deals damage to target creature.",
	}
	b := Record{
		Identity: Identity{"WAR", "56b"},
		Name:     "Survive",
		Type:     "Instant",
		Rarity:   "Uncommon",
	}
	return a, b
}

func TestArena_DisplayNameSplitCardOrder(t *testing.T) {
	a, b := struggleSurvive()
	lookup := &fakeLookup{records: []Record{a, b}}
	arena := NewArena(ArenaConfig{Lookup: lookup})

	// Only the b half is held; the a half must be fetched and shown first.
	rec := arena.Intern(b)
	name, err := arena.DisplayName(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "Struggle // Survive", name)
	assert.Equal(t, 1, lookup.calls)

	// The twin is memoized in both directions.
	twin, ok := arena.Get(a.Identity)
	require.True(t, ok)
	name, err = arena.DisplayName(context.Background(), twin)
	require.NoError(t, err)
	assert.Equal(t, "Struggle // Survive", name)
	assert.Equal(t, 1, lookup.calls)
}

func TestArena_DisplayNameLocalized(t *testing.T) {
	a, b := struggleSurvive()
	a.ForeignNames = []ForeignName{{Name: "Lutte", Language: "French"}}
	b.ForeignNames = []ForeignName{{Name: "Survie", Language: "French"}}
	arena := NewArena(ArenaConfig{Lookup: &fakeLookup{records: []Record{a, b}}, Language: "French"})

	name, err := arena.DisplayName(context.Background(), arena.Intern(a))
	require.NoError(t, err)
	assert.Equal(t, "Lutte // Survie", name)
}

func TestArena_TwinNotFound(t *testing.T) {
	a, _ := struggleSurvive()
	arena := NewArena(ArenaConfig{Lookup: &fakeLookup{records: []Record{a}}})

	_, err := arena.DisplayName(context.Background(), arena.Intern(a))
	var notFound *TwinNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, a.Identity, notFound.Identity)
}

func TestArena_IdentifierText(t *testing.T) {
	arena := NewArena(ArenaConfig{})
	rec := arena.Intern(Record{
		Identity:   Identity{"DOM", "1"},
		Name:       "Serra Angel",
		Type:       "Creature — Angel",
		Subtypes:   []string{"Angel"},
		Supertypes: nil,
		Text:       "Flying, Vigilance",
	})

	text, err := arena.IdentifierText(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "serra angel angel creature — angel   flying, vigilance", text)
}

func TestArena_InternKeepsFirst(t *testing.T) {
	arena := NewArena(ArenaConfig{})
	first := arena.Intern(Record{Identity: Identity{"WAR", "1"}, Name: "First"})
	second := arena.Intern(Record{Identity: Identity{"WAR", "1"}, Name: "Second"})

	assert.Same(t, first, second)
	assert.Equal(t, "First", second.Name)
	assert.Equal(t, 1, arena.Len())
}

func TestArena_ForgetUnlinksTwin(t *testing.T) {
	a, b := struggleSurvive()
	lookup := &fakeLookup{records: []Record{a, b}}
	arena := NewArena(ArenaConfig{Lookup: lookup})

	recA := arena.Intern(a)
	_, err := arena.Twin(context.Background(), recA)
	require.NoError(t, err)

	arena.Forget(b.Identity)
	_, ok := arena.Get(b.Identity)
	assert.False(t, ok)

	// The link is gone, so the next lookup goes back to the remote.
	_, err = arena.Twin(context.Background(), recA)
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.calls)
}

func TestArena_Linked(t *testing.T) {
	a, b := struggleSurvive()
	lookup := &fakeLookup{records: []Record{a, b}}
	arena := NewArena(ArenaConfig{Lookup: lookup})

	recA := arena.Intern(a)
	_, ok := arena.Linked(a.Identity)
	assert.False(t, ok, "nothing is linked before the twin is resolved")

	_, err := arena.Twin(context.Background(), recA)
	require.NoError(t, err)

	twin, ok := arena.Linked(a.Identity)
	require.True(t, ok)
	assert.Equal(t, b.Identity, twin.Identity)
	back, ok := arena.Linked(b.Identity)
	require.True(t, ok)
	assert.Same(t, recA, back)
	assert.Equal(t, 1, lookup.calls)
}
