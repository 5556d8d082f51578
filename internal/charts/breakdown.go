package charts

import (
	"math"
	"sort"
	"strconv"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
	"github.com/ramonehamilton/mtg-binder/internal/collection"
)

// Breakdown is a named distribution of owned copies.
type Breakdown string

const (
	ByRarity    Breakdown = "rarity"
	ByManaValue Breakdown = "mana_value"
)

// Breakdowns lists the supported breakdowns.
func Breakdowns() []Breakdown {
	return []Breakdown{ByRarity, ByManaValue}
}

// Points computes the distribution b over entries, counting copies.
func (b Breakdown) Points(entries []*collection.Entry) ([]DataPoint, error) {
	switch b {
	case ByRarity:
		return RarityPoints(entries), nil
	case ByManaValue:
		return ManaValuePoints(entries), nil
	default:
		return nil, &UnknownBreakdownError{Name: string(b)}
	}
}

// Title returns the chart title for b.
func (b Breakdown) Title() string {
	switch b {
	case ByRarity:
		return "Copies by rarity"
	case ByManaValue:
		return "Copies by mana value"
	default:
		return string(b)
	}
}

// UnknownBreakdownError is returned for an unsupported breakdown name.
type UnknownBreakdownError struct {
	Name string
}

func (e *UnknownBreakdownError) Error() string {
	return "unknown breakdown " + strconv.Quote(e.Name)
}

// RarityPoints counts copies per rarity in ladder order. Rarities outside
// the ladder are appended after it, alphabetically.
func RarityPoints(entries []*collection.Entry) []DataPoint {
	counts := make(map[string]float64)
	for _, e := range entries {
		counts[e.Record.Rarity] += float64(e.Amount)
	}

	points := make([]DataPoint, 0, len(counts))
	for _, r := range cards.Rarities() {
		if n, ok := counts[r]; ok {
			points = append(points, DataPoint{Label: r, Value: n})
			delete(counts, r)
		}
	}

	var other []string
	for r := range counts {
		other = append(other, r)
	}
	sort.Strings(other)
	for _, r := range other {
		label := r
		if label == "" {
			label = "Unknown"
		}
		points = append(points, DataPoint{Label: label, Value: counts[r]})
	}
	return points
}

// ManaValuePoints counts copies per converted mana cost, from 0 up to the
// highest owned value. Values of 7 and above share one bucket.
func ManaValuePoints(entries []*collection.Entry) []DataPoint {
	const top = 7

	if len(entries) == 0 {
		return nil
	}

	var counts [top + 1]float64
	highest := 0
	for _, e := range entries {
		v := int(math.Floor(e.Record.CMC))
		if v > top {
			v = top
		}
		if v < 0 {
			v = 0
		}
		counts[v] += float64(e.Amount)
		if v > highest {
			highest = v
		}
	}

	points := make([]DataPoint, 0, highest+1)
	for v := 0; v <= highest; v++ {
		label := strconv.Itoa(v)
		if v == top {
			label += "+"
		}
		points = append(points, DataPoint{Label: label, Value: counts[v]})
	}
	return points
}
