// Package prof captures runtime profiles around a CLI command.
package prof

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"go.uber.org/multierr"
)

// Options names the output files; an empty path disables that profile.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Session is a set of running profiles.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins the CPU profile and runtime trace requested by opts. On
// error everything already started is stopped.
func Start(opts Options) (s *Session, err error) {
	s = &Session{opts: opts}
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.stop(false))
			s = nil
		}
	}()
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return s, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return s, multierr.Append(err, f.Close())
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			return s, err
		}
		if err := trace.Start(f); err != nil {
			return s, multierr.Append(err, f.Close())
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends the running profiles and writes the heap profile.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	return s.stop(true)
}

func (s *Session) stop(writeMem bool) error {
	var err error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		err = multierr.Append(err, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.traceFile != nil {
		trace.Stop()
		err = multierr.Append(err, s.traceFile.Close())
		s.traceFile = nil
	}
	if writeMem && s.opts.Mem != "" {
		err = multierr.Append(err, writeMemProfile(s.opts.Mem))
	}
	return err
}

func writeMemProfile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
