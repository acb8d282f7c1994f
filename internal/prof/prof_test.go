package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "run.trace"),
	}
	s, err := Start(opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{opts.CPU, opts.Mem, opts.Trace} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("%s: missing or empty profile (%v)", p, err)
		}
	}
}

func TestStartFailureStopsEverything(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Trace: filepath.Join(dir, "missing", "run.trace"),
	})
	if err == nil {
		t.Fatalf("expected an error for an unwritable trace path")
	}
	// the CPU profile must have been stopped, so a new one can start
	s, err := Start(Options{CPU: filepath.Join(dir, "again.pprof")})
	if err != nil {
		t.Fatalf("CPU profile left running: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestNilSession(t *testing.T) {
	var s *Session
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}
