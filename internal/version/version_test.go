package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tests := []struct {
		version string
		want    string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.2.3-rc.1+build.5", "1.2.3-rc.1+build.5"},
		{"snapshot", "snapshot"},
	}
	orig := Version
	defer func() { Version = orig }()
	for _, tt := range tests {
		Version = tt.version
		if got := Colored(); got != tt.want {
			t.Errorf("Colored() with %q = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestColoredKeepsDigits(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	orig := Version
	defer func() { Version = orig }()
	Version = "3.4.5"
	if got := Colored(); got == "3.4.5" {
		t.Fatalf("expected color escapes, got %q", got)
	}
}

func TestCurrent(t *testing.T) {
	orig := GitCommit
	defer func() { GitCommit = orig }()
	GitCommit = "abc123"
	if info := Current(); info.GitCommit != "abc123" || info.Version != Version {
		t.Fatalf("Current() = %+v", info)
	}
}
