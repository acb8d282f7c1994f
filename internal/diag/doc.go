// Package diag defines the diagnostic model shared by every synthesis phase.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning (the advisory level) or Error.
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form such as SEM3238.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the span of the offending member or parameter. Every
//     deviation gets exactly one diagnostic at a precise span.
//   - Args – structured arguments (member names, type labels) so consumers
//     do not have to parse Message.
//   - Notes – optional secondary spans, e.g. "first parameter list here".
//
// # Emitting diagnostics
//
// Phases report through a Reporter. Synthesis workers own a private Bag
// (wrapped in BagReporter) per declaration; the driver merges bags in
// declaration order once every worker finished, so output never interleaves.
//
// Package diag performs no formatting beyond the short single-line form;
// rendering lives in internal/diagfmt.
package diag
