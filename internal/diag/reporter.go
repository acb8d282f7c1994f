package diag

import "aggsynth/internal/source"

// Reporter receives diagnostics from the pipeline phases.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, primary, msg),
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

// ReportWarning is a shortcut for advisory diagnostics.
func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

// WithNote appends a note to diagnostic.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithNote(sp, msg)
	return b
}

// WithArgs attaches the structured arguments of the diagnostic.
func (b *ReportBuilder) WithArgs(args ...string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithArgs(args...)
	return b
}

// Emit sends diagnostic to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter adds every report to Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}
