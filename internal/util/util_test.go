package util

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSplitFrontMatter(t *testing.T) {
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		md        string
		wantErr   bool
		title     string
		date      time.Time
		published bool
		body      string
	}{
		"title date and published": {
			md:        "%%%\ntitle = \"Imported\"\ndate = 2025-01-01 00:00:00Z\npublished = true\n%%%\n# Heading\n\nBody text.",
			title:     "Imported",
			date:      jan1,
			published: true,
			body:      "# Heading\n\nBody text.",
		},
		"leading blank lines and crlf": {
			md:    "\r\n\r\n%%%\r\ntitle = \"Windows\"\r\n%%%\r\nbody",
			title: "Windows",
			body:  "body",
		},
		"empty block": {
			md:   "%%%\n%%%\nonly body",
			body: "only body",
		},
		"no block":             {md: "# Just content", wantErr: true},
		"empty input":          {md: "", wantErr: true},
		"text before block":    {md: "intro\n%%%\ntitle = \"x\"\n%%%\n", wantErr: true},
		"unterminated block":   {md: "%%%\ntitle = \"x\"\n# Content", wantErr: true},
		"delimiters on a line": {md: "%%% %%%", wantErr: true},
		"bad toml":             {md: "%%%\ntitle = \"unclosed\n%%%\nbody", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			fm, body, err := SplitFrontMatter([]byte(tc.md))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Expected an error, got front matter %+v", fm)
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to split front matter: %v", err)
			}
			if fm.Title != tc.title {
				t.Errorf("Expected title %q, got %q", tc.title, fm.Title)
			}
			if !fm.Date.Equal(tc.date) {
				t.Errorf("Expected date %v, got %v", tc.date, fm.Date)
			}
			if fm.Published != tc.published {
				t.Errorf("Expected published %v, got %v", tc.published, fm.Published)
			}
			if string(body) != tc.body {
				t.Errorf("Expected body %q, got %q", tc.body, body)
			}
		})
	}
}

func TestGetFrontMatterRejectsMissingBlock(t *testing.T) {
	fm, err := GetFrontMatter([]byte("# Title\n\ntext"))
	if !errors.Is(err, ErrInvalidFrontMatter) {
		t.Errorf("Expected ErrInvalidFrontMatter, got %v", err)
	}
	if fm != nil {
		t.Errorf("Expected nil front matter, got %+v", fm)
	}
}

func TestContentHash(t *testing.T) {
	if ContentHashString("abc") != ContentHash([]byte("abc")) {
		t.Error("Expected string and byte hashes to match")
	}
	expected := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := ContentHashString("abc"); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestRandomString(t *testing.T) {
	testCases := []struct {
		name     string
		n        int
		alphabet string
		expected int
	}{
		{"six lowercase", 6, LowerAlphanumeric, 6},
		{"zero length", 0, LowerAlphanumeric, 0},
		{"empty alphabet", 4, "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := RandomString(tc.n, tc.alphabet)
			if err != nil {
				t.Fatalf("Failed to generate string: %v", err)
			}
			if len(s) != tc.expected {
				t.Errorf("Expected length %d, got %d", tc.expected, len(s))
			}
			for _, r := range s {
				if !strings.ContainsRune(tc.alphabet, r) {
					t.Errorf("Unexpected character %q in %q", r, s)
				}
			}
		})
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	b, _ := RandomToken(32)
	if len(a) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(a))
	}
	if a == b {
		t.Error("Expected two tokens to differ")
	}
}
