package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelPhase        // driver and phase boundaries
	LevelDetail       // plus one span per declaration
	LevelDebug        // everything, including use sites
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return LevelOff, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|phase|detail|debug)", s)
	}
}

// ShouldEmit reports whether events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopePhase
	case LevelDetail:
		return scope <= ScopeDecl
	case LevelDebug:
		return true
	}
	return false
}
