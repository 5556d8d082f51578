package cards

import (
	"errors"
	"testing"
)

func TestIdentity_Sibling(t *testing.T) {
	tests := []struct {
		name   string
		id     Identity
		want   Identity
		wantOK bool
	}{
		{"a half", Identity{"WAR", "56a"}, Identity{"WAR", "56b"}, true},
		{"b half", Identity{"WAR", "56b"}, Identity{"WAR", "56a"}, true},
		{"single faced", Identity{"WAR", "56"}, Identity{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.id.Sibling()
			if ok != tt.wantOK {
				t.Fatalf("Sibling() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Sibling() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentity_BaseNumber(t *testing.T) {
	if got := (Identity{"DOM", "123b"}).BaseNumber(); got != "123" {
		t.Errorf("BaseNumber() = %q, want %q", got, "123")
	}
	if got := (Identity{"DOM", "7"}).BaseNumber(); got != "7" {
		t.Errorf("BaseNumber() = %q, want %q", got, "7")
	}
}

func TestRecord_LocalizedName(t *testing.T) {
	rec := &Record{
		Name: "Shock",
		ForeignNames: []ForeignName{
			{Name: "Choc", Language: "French"},
			{Name: "Schock", Language: "German"},
		},
	}

	if got := rec.LocalizedName("French"); got != "Choc" {
		t.Errorf("LocalizedName(French) = %q, want Choc", got)
	}
	if got := rec.LocalizedName("Japanese"); got != "Shock" {
		t.Errorf("LocalizedName(Japanese) = %q, want fallback Shock", got)
	}
	if got := rec.LocalizedName(""); got != "Shock" {
		t.Errorf("LocalizedName(\"\") = %q, want Shock", got)
	}
}

func TestRecord_LocalizedImage(t *testing.T) {
	rec := &Record{
		Identity:     Identity{"M19", "156"},
		ImageURL:     "https://img.example/en.jpg",
		MultiverseID: 1000,
		ForeignNames: []ForeignName{
			{Name: "Choc", Language: "French", ImageURL: "https://img.example/fr.jpg", MultiverseID: 2000},
			{Name: "Schock", Language: "German"},
		},
	}

	src, ok := rec.LocalizedImage("French")
	if !ok || src.URL != "https://img.example/fr.jpg" || src.Key != "2000" {
		t.Errorf("LocalizedImage(French) = %+v, %v", src, ok)
	}

	// German entry has no artwork, canonical art is used instead.
	src, ok = rec.LocalizedImage("German")
	if !ok || src.URL != "https://img.example/en.jpg" || src.Key != "1000" {
		t.Errorf("LocalizedImage(German) = %+v, %v", src, ok)
	}

	bare := &Record{Identity: Identity{"M19", "1"}}
	if _, ok := bare.LocalizedImage("French"); ok {
		t.Error("LocalizedImage() on record without art should report no source")
	}
}

func TestRarityRank(t *testing.T) {
	ranks := map[string]int{}
	for _, r := range Rarities() {
		rank, err := RarityRank(&Record{Rarity: r})
		if err != nil {
			t.Fatalf("RarityRank(%q) error: %v", r, err)
		}
		ranks[r] = rank
	}

	if !(ranks["Mythic Rare"] > ranks["Rare"] && ranks["Rare"] > ranks["Uncommon"] &&
		ranks["Uncommon"] > ranks["Common"] && ranks["Common"] > ranks["Basic Land"]) {
		t.Errorf("rarity ladder out of order: %v", ranks)
	}

	_, err := RarityRank(&Record{Identity: Identity{"UST", "1"}, Rarity: "Special"})
	var unknown *UnknownRarityError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownRarityError, got %v", err)
	}
	if unknown.Rarity != "Special" {
		t.Errorf("UnknownRarityError.Rarity = %q", unknown.Rarity)
	}
}
