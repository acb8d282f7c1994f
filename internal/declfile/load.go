package declfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"aggsynth/internal/diag"
	"aggsynth/internal/source"
)

// File is a decoded document together with the file it came from.
type File struct {
	ID  source.FileID
	Doc *Document
}

// Load reads path into fs and decodes it. Failures are reported as
// diagnostics; the returned bool is false when nothing usable was read.
func Load(fs *source.FileSet, path string, r diag.Reporter) (File, bool) {
	id, err := fs.Load(path)
	if err != nil {
		diag.ReportError(r, diag.IOLoadFileError, source.Span{},
			fmt.Sprintf("failed to load %s: %v", path, err)).
			WithArgs(path).
			Emit()
		return File{}, false
	}
	return Decode(fs, id, r)
}

// Decode parses the document stored under id.
func Decode(fs *source.FileSet, id source.FileID, r diag.Reporter) (File, bool) {
	f := fs.Get(id)
	if f == nil {
		return File{}, false
	}
	doc, err := decodeDocument(f.Content)
	if err != nil {
		line := errorLine(err)
		ln, convErr := safecast.Conv[uint32](line)
		if convErr != nil {
			ln = 1
		}
		diag.ReportError(r, diag.IODecodeError, f.SpanAt(line, 1, len(f.GetLine(ln))),
			fmt.Sprintf("invalid declaration document: %v", err)).
			Emit()
		return File{}, false
	}
	return File{ID: id, Doc: doc}, true
}

func decodeDocument(content []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, err
	}
	return &doc, nil
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// errorLine extracts the first line number mentioned by a yaml error.
func errorLine(err error) int {
	m := lineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 1
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil || n < 1 {
		return 1
	}
	return n
}
