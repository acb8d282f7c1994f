package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 16 << 10
)

var builtinSeeds = []string{
	``,
	`aggregates: [{name: P, fragments: [{kind: struct, params: [{name: X, type: int}]}]}]`,
	`aggregates:
  - name: Shape
    fragments:
      - params: [{name: Name, type: string}]
  - name: Circle
    fragments:
      - base: Shape
        params: [{name: R, type: float}]
        members:
          - {name: Equals, type: bool, params: [{name: other, type: Circle}], access: public}
samples:
  - {name: c, type: Circle, args: [{string: c}, {float: 1}]}
uses:
  - {name: u, source: c, with: [{member: R, value: {float: 2}}]}
`,
	`aggregates:
  - name: Loop
    fragments:
      - kind: struct
        params: [{name: Self, type: Loop?}]
`,
	`types: [{name: V, kind: struct, fields: [{name: A, type: int}]}]`,
	"aggregates:\n  - name: [\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every YAML document under testdata/ of the
// repository root, when present.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
