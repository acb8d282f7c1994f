package source

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Ident normalizes an identifier spelling to NFC so that visually identical
// names written with different code point sequences compare equal.
func Ident(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
