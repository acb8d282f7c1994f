package diag

import (
	"fmt"
	"sort"
)

// Bag is an ordered, bounded diagnostic buffer. One Bag per declaration is
// filled by a synthesis worker and merged into the shared sink afterwards.
type Bag struct {
	items []Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max <= 0 {
		max = 1
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(max, 16)),
		max:   max,
	}
}

// Add appends d unless the limit is reached.
// Returns false once the bag is full.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

// HasErrors reports whether any diagnostic is an error.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic is at least an advisory.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the diagnostics in insertion order. The slice aliases the
// bag and must not be modified.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Count returns the number of diagnostics carrying code.
func (b *Bag) Count(code Code) int {
	n := 0
	for i := range b.items {
		if b.items[i].Code == code {
			n++
		}
	}
	return n
}

// Merge appends every diagnostic of other, growing the limit when needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if total := len(b.items) + len(other.items); total > b.max {
		b.max = total
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, start, end, severity (desc) and code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup drops repeats with the same code, span and message.
func (b *Bag) Dedup() {
	seen := make(map[string]struct{}, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%d:%s:%s", d.Code, d.Primary, d.Message)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	b.items = out
}
