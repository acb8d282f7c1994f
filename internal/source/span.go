package source

import (
	"fmt"
)

// Span is a half-open byte range inside one file.
type Span struct {
	File  FileID
	Start uint32 // byte offset, inclusive
	End   uint32 // byte offset, exclusive
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover extends s so that it also covers other. Spans from different files
// are left untouched.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Before reports whether s starts before other in source order.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Start != other.Start {
		return s.Start < other.Start
	}
	return s.End < other.End
}
