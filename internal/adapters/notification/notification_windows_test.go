//go:build windows

package notification

import "testing"

func TestQuotePowerShell(t *testing.T) {
	tests := map[string]string{
		"plain":           "'plain'",
		"it's done":       "'it''s done'",
		"two\nlines":      "'two lines'",
		"":                "''",
	}
	for in, want := range tests {
		if got := quotePowerShell(in); got != want {
			t.Errorf("quotePowerShell(%q) = %q, want %q", in, got, want)
		}
	}
}
