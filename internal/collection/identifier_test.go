package collection

import (
	"errors"
	"testing"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  cards.Identity
	}{
		{"WAR056", cards.Identity{SetCode: "WAR", Number: "56"}},
		{"WAR56", cards.Identity{SetCode: "WAR", Number: "56"}},
		{"DOM123b", cards.Identity{SetCode: "DOM", Number: "123b"}},
		{"M19001", cards.Identity{SetCode: "M19", Number: "1"}},
		{"pWAR1", cards.Identity{SetCode: "PWAR", Number: "1"}},
		{"pWAR056", cards.Identity{SetCode: "PWAR", Number: "56"}},
		{"  KLD7a ", cards.Identity{SetCode: "KLD", Number: "7a"}},
		{"WAR000", cards.Identity{SetCode: "WAR", Number: "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIdentifier(tt.input)
			if err != nil {
				t.Fatalf("ParseIdentifier(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseIdentifier(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseIdentifier_Invalid(t *testing.T) {
	for _, input := range []string{"", "war056", "WA056", "WAR", "WAR1234", "WAR56c", "WAR-56"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseIdentifier(input)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ParseIdentifier(%q) error = %v, want ValidationError", input, err)
			}
		})
	}
}
