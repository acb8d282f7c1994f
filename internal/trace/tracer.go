package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives trace events. Implementations are goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// StorageMode determines how events are stored.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // immediate write
	ModeRing                          // circular buffer
	ModeBoth                          // stream + ring
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a string to StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Mode       StorageMode
	Output     io.Writer // stream output; OutputPath is used when nil
	OutputPath string    // file path, "-" for stderr
	RingSize   int       // default 4096
}

// New creates a Tracer based on cfg.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Mode == 0 {
		cfg.Mode = ModeStream
	}
	format := FormatFor(cfg.OutputPath)

	switch cfg.Mode {
	case ModeStream:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		return NewStreamTracer(w, cfg.Level, format), nil
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		return NewMultiTracer(cfg.Level, NewStreamTracer(w, cfg.Level, format), NewRingTracer(cfg.RingSize, cfg.Level)), nil
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
}

// nopCloser keeps Close from closing stderr.
type nopCloser struct{ io.Writer }

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
