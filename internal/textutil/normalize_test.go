package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "BATMAN", "batman"},
		{"strips leading article", "The Sandman", "sandman"},
		{"strips parenthesized year", "Justice League (2018)", "justice league"},
		{"strips volume designation", "Berserk Volume 3", "berserk"},
		{"strips abbreviated volume", "One Piece Vol. 12", "one piece"},
		{"strips punctuation", "Spider-Man: Miles Morales!", "spider man miles morales"},
		{"collapses whitespace", "  Black   Hammer  ", "black hammer"},
		{"strips diacritics", "Akira Toriyama's Sand Land é", "akira toriyama s sand land e"},
		{"empty input", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTitle(tc.input); got != tc.want {
				t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Stan  LEE "); got != "stan lee" {
		t.Fatalf("NormalizeName = %q, want %q", got, "stan lee")
	}
	if got := NormalizeName("Gabriel Bá"); got != "gabriel ba" {
		t.Fatalf("NormalizeName = %q, want %q", got, "gabriel ba")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("Stan Lee, Jack Kirby, stan lee, , Steve Ditko")
	want := []string{"stan lee", "jack kirby", "steve ditko"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
	if got := SplitList("  "); got != nil {
		t.Fatalf("SplitList of blank input = %v, want nil", got)
	}
}

func TestKeywordsFiltersAndOrders(t *testing.T) {
	text := "A dark detective hunts a dark conspiracy in a dark city. The detective never rests."
	got := Keywords(text)
	if len(got) < 2 {
		t.Fatalf("expected at least two keywords, got %v", got)
	}
	// "dark" appears three times, "detective" twice.
	if got[0] != "dark" || got[1] != "detective" {
		t.Fatalf("expected frequency ordering [dark detective ...], got %v", got)
	}
	for _, word := range got {
		if len(word) < 4 {
			t.Fatalf("keyword %q shorter than minimum length", word)
		}
		if word == "never" || word == "this" {
			t.Fatalf("stopword %q leaked into keywords", word)
		}
	}
}

func TestKeywordsEmptyInput(t *testing.T) {
	if got := Keywords("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
	if got := Keywords("a an it"); got != nil {
		t.Fatalf("expected nil when every word is filtered, got %v", got)
	}
}
