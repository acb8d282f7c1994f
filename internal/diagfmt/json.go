package diagfmt

import (
	"encoding/json"
	"io"

	"aggsynth/internal/diag"
	"aggsynth/internal/source"
)

// LocationJSON is a span in JSON output.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON is a secondary note.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is one diagnostic.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Args     []string     `json:"args,omitempty"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON document.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	loc := LocationJSON{
		File:      displayPath(fs, fs.Get(span.File), pathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput builds the JSON structure without serializing it.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	n := len(items)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	diagnostics := make([]DiagnosticJSON, 0, n)
	for _, d := range items[:n] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Args:     d.Args,
			Location: makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
		}
		// timing payloads live in notes
		if (opts.IncludeNotes || d.Code == diag.ObsTimings) && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				}
			}
		}
		diagnostics = append(diagnostics, dj)
	}
	return DiagnosticsOutput{Diagnostics: diagnostics, Count: len(diagnostics)}
}

// JSON writes the diagnostics as an indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
