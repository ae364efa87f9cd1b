package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.1.0-dev", "", "", "ledgerc 0.1.0-dev"},
		{"1.2.3", "1234567890abcdef", "", "ledgerc 1.2.3 (1234567890ab)"},
		{"1.2.3-rc.1", "abc", "2026-01-15", "ledgerc 1.2.3-rc.1 (abc) built 2026-01-15"},
		{"custom", "", "", "ledgerc custom"},
	}
	for _, tt := range tests {
		Version, GitCommit, BuildDate = tt.version, tt.commit, tt.date
		if got := String(false); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestStringColor(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()
	Version = "1.2.3"
	if got := String(true); !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected escape codes in %q", got)
	}
}
