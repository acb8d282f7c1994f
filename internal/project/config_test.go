package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadFindsManifestUpward(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[synth]
jobs = 3
cache_dir = ".cache"
inputs = ["decls/a.yaml"]

[log]
level = "debug"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Load(nested)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
	if m.Config.Synth.Jobs != 3 || m.Config.Log.Level != "debug" {
		t.Fatalf("config = %+v", m.Config)
	}
	if m.Config.Synth.MaxDiagnostics != 100 || !m.Config.Synth.Cache {
		t.Fatalf("defaults must survive partial files: %+v", m.Config.Synth)
	}
	if want := filepath.Join(root, ".cache"); m.Config.Synth.CacheDir != want {
		t.Fatalf("cache dir = %q", m.Config.Synth.CacheDir)
	}
	if got := m.InputPaths(); len(got) != 1 || got[0] != filepath.Join(root, "decls", "a.yaml") {
		t.Fatalf("inputs = %v", got)
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	m, ok, err := Load(t.TempDir())
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if m.Config.Synth.Jobs < 1 {
		t.Fatalf("defaults expected, got %+v", m.Config)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[synth]\nworkers = 2\n", "unknown keys"},
		{"negative jobs", "[synth]\njobs = -1\n", "jobs"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "[log].level"},
		{"syntax", "[synth\n", "failed to parse TOML"},
		{"zero diagnostics", "[synth]\nmax_diagnostics = 0\n", "max_diagnostics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadStopsAtRepositoryRoot(t *testing.T) {
	outer := t.TempDir()
	writeManifest(t, outer, "[synth]\njobs = 2\n")
	repo := filepath.Join(outer, "repo")
	nested := filepath.Join(repo, "pkg")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := Load(nested); err != nil || ok {
		t.Fatalf("manifest outside the repository must be ignored: ok=%v err=%v", ok, err)
	}
	writeManifest(t, repo, "[synth]\njobs = 5\n")
	m, ok, err := Load(nested)
	if err != nil || !ok || m.Config.Synth.Jobs != 5 {
		t.Fatalf("ok=%v err=%v manifest=%+v", ok, err, m)
	}
}
