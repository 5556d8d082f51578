package mtgio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

// Card represents a card printing from the magicthegathering.io API.
type Card struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ManaCost     string        `json:"manaCost,omitempty"`
	CMC          float64       `json:"cmc"`
	Type         string        `json:"type"`
	Supertypes   []string      `json:"supertypes,omitempty"`
	Types        []string      `json:"types,omitempty"`
	Subtypes     []string      `json:"subtypes,omitempty"`
	Rarity       string        `json:"rarity"`
	Set          string        `json:"set"`
	SetName      string        `json:"setName"`
	Text         string        `json:"text,omitempty"`
	Watermark    string        `json:"watermark,omitempty"`
	Number       string        `json:"number"`
	Layout       string        `json:"layout"`
	MultiverseID FlexibleInt   `json:"multiverseid,omitempty"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	ForeignNames []ForeignName `json:"foreignNames,omitempty"`
}

// ForeignName is a localized version of a card.
type ForeignName struct {
	Name         string      `json:"name"`
	Language     string      `json:"language"`
	ImageURL     string      `json:"imageUrl,omitempty"`
	MultiverseID FlexibleInt `json:"multiverseid,omitempty"`
}

// Record converts the API card into the domain record.
func (c Card) Record() cards.Record {
	rec := cards.Record{
		ID:           c.ID,
		Identity:     cards.Identity{SetCode: c.Set, Number: c.Number},
		Name:         c.Name,
		ManaCost:     c.ManaCost,
		CMC:          c.CMC,
		Type:         c.Type,
		Supertypes:   c.Supertypes,
		Types:        c.Types,
		Subtypes:     c.Subtypes,
		Rarity:       c.Rarity,
		Text:         c.Text,
		Watermark:    c.Watermark,
		ImageURL:     c.ImageURL,
		MultiverseID: int(c.MultiverseID),
	}
	for _, fn := range c.ForeignNames {
		rec.ForeignNames = append(rec.ForeignNames, cards.ForeignName{
			Name:         fn.Name,
			Language:     fn.Language,
			ImageURL:     fn.ImageURL,
			MultiverseID: int(fn.MultiverseID),
		})
	}
	return rec
}

// Set represents a card set.
type Set struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Block       string `json:"block,omitempty"`
}

type cardResponse struct {
	Card Card `json:"card"`
}

type cardsResponse struct {
	Cards []Card `json:"cards"`
}

type setsResponse struct {
	Sets []Set `json:"sets"`
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("card API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("card API error (HTTP %d)", e.Status)
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// FlexibleInt decodes an integer the API sends either as a JSON number or as
// a quoted string.
type FlexibleInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", data, err)
	}
	*f = FlexibleInt(n)
	return nil
}
