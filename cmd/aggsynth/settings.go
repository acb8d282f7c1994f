package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"aggsynth/internal/prof"
	"aggsynth/internal/project"
	"aggsynth/internal/trace"
)

// session is the resolved configuration of one command invocation.
type session struct {
	manifest *project.Manifest
	log      *zap.Logger
	tracer   trace.Tracer
	profile  *prof.Session
}

// openSession loads aggsynth.toml from the working directory upwards,
// applies the persistent flag overrides and installs the logger and
// tracer on cmd's context.
func openSession(cmd *cobra.Command) (*session, error) {
	m, _, err := project.Load(".")
	if err != nil {
		return nil, err
	}
	flags := cmd.Root().PersistentFlags()
	if v, _ := flags.GetString("log-level"); v != "" {
		m.Config.Log.Level = v
	}
	if v, _ := flags.GetString("trace-level"); v != "" {
		m.Config.Trace.Level = v
	}
	if v, _ := flags.GetString("trace"); v != "" {
		m.Config.Trace.Output = v
	}

	log, err := newLogger(m.Config.Log.Level)
	if err != nil {
		return nil, err
	}
	if m.Path != "" {
		log.Debug("configuration loaded", zap.String("path", m.Path))
	}

	tr, err := setupTracing(cmd, m.Config.Trace)
	if err != nil {
		return nil, err
	}
	var popts prof.Options
	popts.CPU, _ = flags.GetString("cpuprofile")
	popts.Mem, _ = flags.GetString("memprofile")
	popts.Trace, _ = flags.GetString("runtime-trace")
	ps, err := prof.Start(popts)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("start profiling: %w", err), tr.Close())
	}
	ctx := trace.WithTracer(contextOf(cmd), tr)
	cmd.SetContext(ctx)
	return &session{manifest: m, log: log, tracer: tr, profile: ps}, nil
}

// setupTracing creates the tracer described by cfg and the trace flags.
func setupTracing(cmd *cobra.Command, cfg project.TraceConfig) (trace.Tracer, error) {
	level, err := trace.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// an output without a level traces phases
	if level == trace.LevelOff && cfg.Output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		return trace.Nop, nil
	}
	flags := cmd.Root().PersistentFlags()
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	output := cfg.Output
	if output == "" {
		output = "-"
	}
	tr, err := trace.New(trace.Config{Level: level, Mode: mode, OutputPath: output, RingSize: ringSize})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	return tr, nil
}

// close stops profiling and flushes the tracer and the logger.
func (s *session) close() error {
	err := s.profile.Stop()
	if ring, ok := s.tracer.(*trace.RingTracer); ok {
		err = multierr.Append(err, ring.Dump(os.Stderr, trace.FormatText))
	}
	err = multierr.Combine(err, s.tracer.Flush(), s.tracer.Close())
	// syncing stderr fails on some terminals; nothing useful to report
	_ = s.log.Sync()
	return err
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
