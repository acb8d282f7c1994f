package source

import (
	"path/filepath"
	"slices"
	"sort"
)

// normalizeCRLF rewrites \r\n to \n and leaves lone \r alone.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}
	out := make([]byte, 0, len(content))
	changed := false
	for i := 0; i < len(content); i++ {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			changed = true
			continue
		}
		out = append(out, content[i])
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}

func buildLineStarts(content []byte) []uint32 {
	out := make([]uint32, 1, 1+len(content)/32)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i+1))
		}
	}
	return out
}

func toLineCol(lineStarts []uint32, off uint32) LineCol {
	if len(lineStarts) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	// largest lineStarts[i] <= off
	i := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > off }) - 1
	if i < 0 {
		i = 0
	}
	return LineCol{Line: uint32(i + 1), Col: off - lineStarts[i] + 1}
}

func normalizePath(p string) string {
	// forward slashes keep golden output stable across platforms
	return filepath.ToSlash(filepath.Clean(p))
}
