package service

import "testing"

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "exact", a: "plumbing", b: "plumbing", want: true},
		{name: "case insensitive", a: "Plumbing", b: "PLUMBING", want: true},
		{name: "substring forward", a: "plumb", b: "plumbing", want: true},
		{name: "substring backward", a: "home plumbing repair", b: "plumbing", want: true},
		{name: "typo one edit", a: "plumbing", b: "plumbbing", want: true},
		{name: "typo two edits", a: "electrician", b: "electricain", want: true},
		{name: "trade suffix", a: "plumber", b: "plumbing", want: true},
		{name: "plural suffix", a: "painters", b: "painter", want: true},
		{name: "unrelated", a: "plumbing", b: "gardening", want: false},
		{name: "empty left", a: "", b: "plumbing", want: false},
		{name: "empty right", a: "plumbing", b: "", want: false},
		{name: "whitespace only", a: "  ", b: "plumbing", want: false},
		{name: "long unrelated", a: "air conditioning repair", b: "wedding photography", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FuzzyMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
