package store

import "testing"

func TestEscapeSearchNeutralizesPatternCharacters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Alice", "Alice"},
		{"%", `\%`},
		{"a_b", `a\_b`},
		{`C:\path`, `C:\\path`},
		{"100%_done", `100\%\_done`},
	}
	for _, tc := range cases {
		if got := escapeSearch(tc.in); got != tc.want {
			t.Fatalf("escapeSearch(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
