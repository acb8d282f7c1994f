package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to the FileSet base when possible.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always shows the path as loaded.
	PathModeAbsolute
	PathModeBasename
)

// PrettyOpts configures human-readable rendering.
type PrettyOpts struct {
	Color    bool
	Context  int8 // extra source lines above the primary line
	PathMode PathMode
	// Width truncates source excerpts to that many columns; 0 disables it.
	Width     uint8
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int // truncates the output, not the bag
	IncludeNotes     bool
}
