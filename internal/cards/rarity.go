package cards

import "fmt"

// Rarities in ascending order. A record's rank is its index in this ladder.
var rarityLadder = []string{
	"Basic Land",
	"Common",
	"Uncommon",
	"Rare",
	"Mythic Rare",
}

// Rarities returns the rarity ladder from lowest to highest.
func Rarities() []string {
	out := make([]string, len(rarityLadder))
	copy(out, rarityLadder)
	return out
}

// UnknownRarityError reports a record whose rarity is not on the ladder.
type UnknownRarityError struct {
	Identity Identity
	Rarity   string
}

// Error implements the error interface for UnknownRarityError.
func (e *UnknownRarityError) Error() string {
	return fmt.Sprintf("card %s has unknown rarity %q", e.Identity, e.Rarity)
}

// RarityRank returns the position of the record's rarity in the ladder.
func RarityRank(rec *Record) (int, error) {
	for i, r := range rarityLadder {
		if r == rec.Rarity {
			return i, nil
		}
	}
	return 0, &UnknownRarityError{Identity: rec.Identity, Rarity: rec.Rarity}
}
