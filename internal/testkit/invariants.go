// Package testkit holds invariant checks shared by tests and fuzz
// harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"aggsynth/internal/diag"
	"aggsynth/internal/source"
	"aggsynth/internal/synth"
)

// CheckDiagnosticSpans verifies that every diagnostic and note points
// inside the content of a file of fs. Spans of informational diagnostics
// without a location are skipped.
func CheckDiagnosticSpans(bag *diag.Bag, fs *source.FileSet) error {
	for i, d := range bag.Items() {
		if d.Severity == diag.SevInfo && d.Primary.Empty() {
			continue
		}
		if err := checkSpan(fs, d.Primary); err != nil {
			return fmt.Errorf("diagnostic %d (%s): %w", i, d.Code.ID(), err)
		}
		for j, n := range d.Notes {
			if n.Span.Empty() && n.Span.Start == 0 {
				continue
			}
			if err := checkSpan(fs, n.Span); err != nil {
				return fmt.Errorf("diagnostic %d note %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// CheckMemberSets verifies the structural invariants every published
// member set satisfies:
//  1. a fatal set has every slot Absent
//  2. synthesized slots carry a descriptor, adopted slots a candidate
//  3. component indexes are dense and in declaration order
//  4. component spans lie inside their file
func CheckMemberSets(sets []*synth.MemberSet, fs *source.FileSet) error {
	for _, ms := range sets {
		if ms == nil {
			return fmt.Errorf("nil member set")
		}
		for _, t := range synth.Targets() {
			sl := ms.Slot(t)
			if sl == nil {
				continue
			}
			switch {
			case ms.Fatal && sl.Present():
				return fmt.Errorf("%s: fatal set has %s slot %s", ms.TypeName, t, sl.State)
			case sl.State == synth.SlotSynthesized && sl.Desc == nil:
				return fmt.Errorf("%s: synthesized %s without descriptor", ms.TypeName, t)
			case sl.State == synth.SlotAdopted && sl.Candidate == nil:
				return fmt.Errorf("%s: adopted %s without candidate", ms.TypeName, t)
			}
		}
		for i, c := range ms.Components {
			if c.Index != i {
				return fmt.Errorf("%s: component %s has index %d, want %d", ms.TypeName, c.Name, c.Index, i)
			}
			if err := checkSpan(fs, c.Span); err != nil {
				return fmt.Errorf("%s: component %s: %w", ms.TypeName, c.Name, err)
			}
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span %v points to an unknown file", sp)
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("span %v is inverted", sp)
	}
	if sp.End > size {
		return fmt.Errorf("span %v ends beyond content (%d bytes)", sp, size)
	}
	return nil
}
