package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func localeFor(t *testing.T, configure func(r *http.Request), lookup CountryLookup) string {
	t.Helper()
	var got string
	handler := Locale("en", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	if configure != nil {
		configure(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLocaleHeaderWins(t *testing.T) {
	got := localeFor(t, func(r *http.Request) {
		r.Header.Set("X-Locale", "ID")
		r.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	}, nil)
	if got != "id" {
		t.Fatalf("locale = %q, want id", got)
	}
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	got := localeFor(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.5")
	}, nil)
	if got != "fr" {
		t.Fatalf("locale = %q, want fr", got)
	}
}

func TestLocaleFromGeoIP(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.9" {
			t.Fatalf("lookup ip = %q", ip)
		}
		return "BR", nil
	}
	got := localeFor(t, nil, lookup)
	if got != "pt" {
		t.Fatalf("locale = %q, want pt", got)
	}
}

func TestLocaleFallsBackToDefault(t *testing.T) {
	lookup := func(ip string) (string, error) {
		return "", errors.New("db unavailable")
	}
	got := localeFor(t, nil, lookup)
	if got != "en" {
		t.Fatalf("locale = %q, want en", got)
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := map[string]string{
		"en-US":   "en",
		"DE":      "de",
		"pt_BR":   "pt",
		"":        "en",
		"  ja  ":  "ja",
		"es-419":  "es",
		"zh-Hant": "zh",
	}
	for in, want := range tests {
		if got := normalizeLocale(in); got != want {
			t.Fatalf("normalizeLocale(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCountryLocale(t *testing.T) {
	tests := map[string]string{
		"ID": "id",
		"de": "de",
		"FR": "fr",
		"MX": "es",
		"JP": "ja",
		"US": "en",
	}
	for country, want := range tests {
		if got := countryLocale(country, "en"); got != want {
			t.Fatalf("countryLocale(%q) = %q, want %q", country, got, want)
		}
	}
}
