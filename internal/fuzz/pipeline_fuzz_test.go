package fuzztests

import (
	"testing"
	"time"

	"aggsynth/internal/decl"
	"aggsynth/internal/declfile"
	"aggsynth/internal/diag"
	"aggsynth/internal/layout"
	"aggsynth/internal/lower"
	"aggsynth/internal/source"
	"aggsynth/internal/synth"
	"aggsynth/internal/testkit"
	"aggsynth/internal/types"
)

// pipelineTimeout bounds one input; exceeding it means a loop in layout
// or base-chain walking.
const pipelineTimeout = 5 * time.Second

func runPipeline(input []byte) error {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fuzz.yaml", input)
	bag := diag.NewBag(256)
	r := &diag.BagReporter{Bag: bag}

	var files []declfile.File
	if f, ok := declfile.Decode(fs, id, r); ok {
		files = append(files, f)
	}
	in := types.NewInterner()
	unit := declfile.Bind(fs, files, in, r)
	aggs := make([]*decl.Aggregate, 0, len(unit.Decls))
	for _, d := range unit.Decls {
		agg := decl.Merge(d.ID, d.Type, d.Fragments, r)
		in.SetFields(d.Type, synth.StorageFields(agg))
		aggs = append(aggs, agg)
	}
	in.Freeze()

	walker := layout.New(in)
	sets := make([]*synth.MemberSet, 0, len(aggs))
	for _, agg := range aggs {
		sets = append(sets, synth.Synthesize(agg, synth.Options{Types: in, Reporter: r, Layout: walker}))
	}
	table := synth.NewTable(sets)
	for _, u := range unit.Uses {
		lower.With(u.Expr, lower.Options{Types: in, Table: table, Reporter: r})
	}

	if err := testkit.CheckDiagnosticSpans(bag, fs); err != nil {
		return err
	}
	return testkit.CheckMemberSets(sets, fs)
}

func FuzzPipeline(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		input = append([]byte(nil), input...)

		done := make(chan error, 1)
		go func() {
			done <- runPipeline(input)
		}()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("%v\ninput: %q", err, truncateForLog(input, 200))
			}
		case <-time.After(pipelineTimeout):
			t.Fatalf("pipeline hang detected: took longer than %v\ninput (%d bytes): %q",
				pipelineTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// TestSeedsPass runs the built-in seeds as a regular test.
func TestSeedsPass(t *testing.T) {
	for i, s := range builtinSeeds {
		if err := runPipeline([]byte(s)); err != nil {
			t.Errorf("seed %d: %v", i, err)
		}
	}
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(append([]byte(nil), input[:maxLen]...), "..."...)
}
