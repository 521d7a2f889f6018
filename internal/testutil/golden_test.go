package testutil

import "testing"

func TestFirstDiff(t *testing.T) {
	tests := []struct {
		want, got, diff string
	}{
		{"a\nb\n", "a\nb\n", ""},
		{"a\nb\n", "a\nc\n", `line 2: want "b", got "c"`},
		{"a\n", "a\nb\n", `line 2: want "", got "b"`},
	}
	for _, tt := range tests {
		if diff := firstDiff(tt.want, tt.got); diff != tt.diff {
			t.Errorf("firstDiff(%q, %q) = %q, want %q", tt.want, tt.got, diff, tt.diff)
		}
	}
}
