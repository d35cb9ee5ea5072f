package textutil_test

import (
	"testing"

	"keyreel/internal/textutil"
)

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Shift", "shift"},
		{"ArrowUp", "arrowup"},
		{"Num 5", "num_5"},
		{"a/b:c", "a_b_c"},
		{"", "unknown"},
		{"___", "unknown"},
		{"key-1", "key-1"},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRecognized(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  hello   world ", "HELLO WORLD"},
		{"z", "Z"},
		{"\tA \n B\t", "A B"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.NormalizeRecognized(tc.in); got != tc.want {
			t.Errorf("NormalizeRecognized(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
