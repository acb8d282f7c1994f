package diagfmt

import (
	"path/filepath"

	"aggsynth/internal/source"
)

func displayPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return f.DisplayPath(fs.BaseDir())
	}
}
