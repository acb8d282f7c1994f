package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"aggsynth/internal/diag"
	"aggsynth/internal/source"
)

type palette struct {
	sev    map[diag.Severity]*color.Color
	path   *color.Color
	gutter *color.Color
	note   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
		},
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		note:   color.New(color.FgGreen),
	}
	all := []*color.Color{p.path, p.gutter, p.note}
	for _, c := range p.sev {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	if c, ok := p.sev[s]; ok {
		return c
	}
	return p.sev[diag.SevInfo]
}

// Pretty renders diagnostics in bag order (call bag.Sort first for source
// order). Each entry is
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline under the span and,
// with ShowNotes, the notes in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		sev := p.severity(d.Severity)
		if located(d.Primary, fs) && !(d.Severity == diag.SevInfo && d.Primary.Empty()) {
			fmt.Fprintf(w, "%s: %s %s: %s\n", p.path.Sprint(position(fs, d.Primary, opts.PathMode)),
				sev.Sprint(d.Severity), d.Code.ID(), d.Message)
			excerpt(w, fs, d.Primary, opts, p, sev)
		} else {
			fmt.Fprintf(w, "%s %s: %s\n", sev.Sprint(d.Severity), d.Code.ID(), d.Message)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if located(n.Span, fs) && !n.Span.Empty() {
				fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), position(fs, n.Span, opts.PathMode), n.Msg)
				excerpt(w, fs, n.Span, opts, p, p.note)
			} else {
				fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
			}
		}
	}
}

func located(sp source.Span, fs *source.FileSet) bool {
	return fs != nil && fs.Get(sp.File) != nil
}

func position(fs *source.FileSet, sp source.Span, mode PathMode) string {
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", displayPath(fs, fs.Get(sp.File), mode), start.Line, start.Col)
}

// excerpt prints the lines leading up to the span and an underline sized
// in display columns, so wide runes line up.
func excerpt(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, p palette, under *color.Color) {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	first := start.Line
	if c := uint32(max(opts.Context, 0)); c < first { //nolint:gosec // non-negative
		first -= c
	} else {
		first = 1
	}
	numWidth := len(fmt.Sprint(start.Line))
	gutter := func(n string) string {
		return p.gutter.Sprintf("%*s |", numWidth, n)
	}
	for ln := first; ln <= start.Line; ln++ {
		text := expandTabs(f.GetLine(ln))
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "...")
		}
		fmt.Fprintf(w, "%s %s\n", gutter(fmt.Sprint(ln)), text)
	}

	col := min(int(start.Col)-1, len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	pad := runewidth.StringWidth(expandTabs(line[:col]))
	width := max(1, runewidth.StringWidth(expandTabs(line[col:max(col, stop)])))
	if opts.Width > 0 && pad+width > int(opts.Width) {
		width = max(1, int(opts.Width)-pad)
	}
	fmt.Fprintf(w, "%s %s%s\n", gutter(""), strings.Repeat(" ", pad), under.Sprint("^"+strings.Repeat("~", width-1)))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
