package language_test

import (
	"testing"

	"convolens/internal/language"
)

func TestToISO2(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already ISO2", input: "en", want: "en"},
		{name: "ISO3 primary", input: "deu", want: "de"},
		{name: "ISO3 alternate", input: "fre", want: "fr"},
		{name: "full word", input: "Spanish", want: "es"},
		{name: "BCP47 region tag", input: "en-US", want: "en"},
		{name: "underscore tag", input: "pt_BR", want: "pt"},
		{name: "whitespace", input: "  ja  ", want: "ja"},
		{name: "unknown two letter passes through", input: "xx", want: "xx"},
		{name: "unknown word", input: "klingon", want: ""},
		{name: "empty", input: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := language.ToISO2(tc.input); got != tc.want {
				t.Fatalf("ToISO2(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := language.Normalize("Russian", "en"); got != "ru" {
		t.Fatalf("expected ru, got %q", got)
	}
	if got := language.Normalize("", "de"); got != "de" {
		t.Fatalf("expected fallback de, got %q", got)
	}
	if got := language.Normalize("", ""); got != "en" {
		t.Fatalf("expected final fallback en, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := language.DisplayName("zho"); got != "Chinese" {
		t.Fatalf("expected Chinese, got %q", got)
	}
	if got := language.DisplayName(""); got != "Unknown" {
		t.Fatalf("expected Unknown, got %q", got)
	}
	if got := language.DisplayName("xq"); got != "XQ" {
		t.Fatalf("expected uppercased passthrough, got %q", got)
	}
}
