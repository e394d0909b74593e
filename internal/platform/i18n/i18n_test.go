package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  language.Tag
		ok    bool
	}{
		{name: "english", value: "en", want: language.English, ok: true},
		{name: "brazilian portuguese", value: "pt-BR", want: language.BrazilianPortuguese, ok: true},
		{name: "empty falls back", value: "", want: language.English, ok: false},
		{name: "garbage falls back", value: "not-a-locale!", want: language.English, ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseLocale(tc.value)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   language.Tag
	}{
		{name: "empty header", header: "", want: language.English},
		{name: "portuguese preferred", header: "pt-BR,pt;q=0.9,en;q=0.8", want: language.BrazilianPortuguese},
		{name: "unsupported falls back", header: "ja-JP", want: language.English},
		{name: "malformed header", header: ";;;", want: language.English},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchAcceptLanguage(tc.header); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
