package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks files added from memory (tests, stdin, generated).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single declaration document.
type File struct {
	ID         FileID
	Path       string
	Content    []byte
	LineStarts []uint32 // byte offset of every line start, LineStarts[0] == 0
	Hash       [32]byte
	Flags      FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
