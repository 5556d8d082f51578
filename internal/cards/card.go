// Package cards models a single card printing and the derived attributes shown
// for it: localized display names, the filterable identifier text and the
// rarity ladder. Multi-faced printings are linked to their other half through
// an Arena so twin relations never form ownership cycles.
package cards

import (
	"strconv"
	"strings"
)

// Face suffixes carried by the printed number of split and flip cards.
const (
	FaceA = "a"
	FaceB = "b"
)

// Identity is the natural key of a printing. Two records are the same
// printing iff both fields match exactly.
type Identity struct {
	SetCode string `msgpack:"set"`
	Number  string `msgpack:"number"`
}

// String returns the identifier as printed on the card, e.g. "WAR56a".
func (id Identity) String() string {
	return id.SetCode + id.Number
}

// Face returns the face suffix of the printed number, or "" for single-faced cards.
func (id Identity) Face() string {
	switch {
	case strings.HasSuffix(id.Number, FaceA):
		return FaceA
	case strings.HasSuffix(id.Number, FaceB):
		return FaceB
	default:
		return ""
	}
}

// IsMultiFaced reports whether the printing is one half of a split or flip card.
func (id Identity) IsMultiFaced() bool {
	return id.Face() != ""
}

// BaseNumber returns the printed number without its face suffix.
func (id Identity) BaseNumber() string {
	if face := id.Face(); face != "" {
		return strings.TrimSuffix(id.Number, face)
	}
	return id.Number
}

// WithFace returns the identity of the given face of the same printing.
func (id Identity) WithFace(face string) Identity {
	return Identity{SetCode: id.SetCode, Number: id.BaseNumber() + face}
}

// Sibling returns the identity of the other half of a multi-faced printing.
func (id Identity) Sibling() (Identity, bool) {
	switch id.Face() {
	case FaceA:
		return id.WithFace(FaceB), true
	case FaceB:
		return id.WithFace(FaceA), true
	default:
		return Identity{}, false
	}
}

// ForeignName is the localized name and artwork of a card in one language.
type ForeignName struct {
	Name         string `msgpack:"name"`
	Language     string `msgpack:"language"`
	ImageURL     string `msgpack:"image_url,omitempty"`
	MultiverseID int    `msgpack:"multiverse_id,omitempty"`
}

// Record is a single printing as returned by the card database. Records are
// not modified after they are fetched.
type Record struct {
	ID string `msgpack:"id,omitempty"`
	Identity

	Name       string   `msgpack:"name"`
	ManaCost   string   `msgpack:"mana_cost,omitempty"`
	CMC        float64  `msgpack:"cmc,omitempty"`
	Type       string   `msgpack:"type,omitempty"` // Full type line
	Supertypes []string `msgpack:"supertypes,omitempty"`
	Types      []string `msgpack:"types,omitempty"`
	Subtypes   []string `msgpack:"subtypes,omitempty"`
	Rarity     string   `msgpack:"rarity"`
	Text       string   `msgpack:"text,omitempty"` // Rules text
	Watermark  string   `msgpack:"watermark,omitempty"`

	ImageURL     string        `msgpack:"image_url,omitempty"`
	MultiverseID int           `msgpack:"multiverse_id,omitempty"`
	ForeignNames []ForeignName `msgpack:"foreign_names,omitempty"`
}

// foreign returns the localized entry for language, if the record has one.
func (r *Record) foreign(language string) (ForeignName, bool) {
	for _, fn := range r.ForeignNames {
		if fn.Language == language {
			return fn, true
		}
	}
	return ForeignName{}, false
}

// LocalizedName returns the card name in language, falling back to the
// canonical name.
func (r *Record) LocalizedName(language string) string {
	if fn, ok := r.foreign(language); ok && fn.Name != "" {
		return fn.Name
	}
	return r.Name
}

// ImageSource describes where the artwork of a record can be downloaded.
type ImageSource struct {
	Key string // Stable cache key (stringified multiverse or card ID)
	URL string
}

// LocalizedImage resolves the artwork URL for language: the localized art
// when available, then the canonical art. ok is false when neither exists.
func (r *Record) LocalizedImage(language string) (src ImageSource, ok bool) {
	if fn, found := r.foreign(language); found && fn.ImageURL != "" {
		key := r.imageKey(fn.MultiverseID)
		if fn.MultiverseID == 0 {
			key += "-" + language
		}
		return ImageSource{Key: key, URL: fn.ImageURL}, true
	}
	if r.ImageURL != "" {
		return ImageSource{Key: r.imageKey(r.MultiverseID), URL: r.ImageURL}, true
	}
	return ImageSource{}, false
}

func (r *Record) imageKey(multiverseID int) string {
	if multiverseID != 0 {
		return strconv.Itoa(multiverseID)
	}
	if r.ID != "" {
		return r.ID
	}
	return r.Identity.String()
}
