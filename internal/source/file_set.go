package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet owns every declaration document loaded during one compilation and
// maps byte offsets back to line/column positions.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> id
	baseDir string            // relative paths are resolved against it
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return NewFileSetWithBase("")
}

// NewFileSetWithBase creates a FileSet that reports paths relative to base.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{
		files:   make([]File, 0, 4),
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// SetBaseDir sets the directory used to shorten paths in output.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the base directory, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Len returns the number of files in the set.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Add stores content under path and returns a fresh FileID. Re-adding the
// same path allocates a new ID; lookups by path return the latest one.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	normalized := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:         id,
		Path:       normalized,
		Content:    content,
		LineStarts: buildLineStarts(content),
		Hash:       sha256.Sum256(content),
		Flags:      flags,
	})
	fileSet.index[normalized] = id
	return id
}

// Load reads a file from disk, strips a BOM, normalizes CRLF and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	var flags FileFlags
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory document.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil when id is unknown.
func (fileSet *FileSet) Get(id FileID) *File {
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// GetByPath returns the file loaded from path, if any.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{Line: 1, Col: 1}, LineCol{Line: 1, Col: 1}
	}
	return toLineCol(f.LineStarts, span.Start), toLineCol(f.LineStarts, span.End)
}

// Offset converts a 1-based line/column pair into a byte offset, clamped to
// the file contents.
func (f *File) Offset(line, col int) uint32 {
	if f == nil || line < 1 {
		return 0
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		size = ^uint32(0)
	}
	if line > len(f.LineStarts) {
		return size
	}
	off := f.LineStarts[line-1]
	if col > 1 {
		delta, convErr := safecast.Conv[uint32](col - 1)
		if convErr == nil {
			off += delta
		}
	}
	return min(off, size)
}

// SpanAt builds a span of length n bytes starting at line/col.
func (f *File) SpanAt(line, col, n int) Span {
	if f == nil {
		return Span{}
	}
	start := f.Offset(line, col)
	width, err := safecast.Conv[uint32](max(n, 0))
	if err != nil {
		width = 0
	}
	end := start + width
	if size := uint32(len(f.Content)); end > size {
		end = size
	}
	return Span{File: f.ID, Start: start, End: end}
}

// GetLine returns line lineNum (1-based) without its trailing newline.
func (f *File) GetLine(lineNum uint32) string {
	if f == nil || lineNum == 0 || int(lineNum) > len(f.LineStarts) {
		return ""
	}
	start := f.LineStarts[lineNum-1]
	end := uint32(len(f.Content))
	if int(lineNum) < len(f.LineStarts) {
		end = f.LineStarts[lineNum] - 1
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// DisplayPath returns the path relative to baseDir when possible.
func (f *File) DisplayPath(baseDir string) string {
	if f == nil {
		return ""
	}
	if baseDir == "" || f.Flags&FileVirtual != 0 {
		return f.Path
	}
	if rel, err := filepath.Rel(baseDir, f.Path); err == nil && !filepath.IsAbs(rel) && rel != "" && rel[0] != '.' {
		return filepath.ToSlash(rel)
	}
	return f.Path
}
