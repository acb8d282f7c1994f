package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"aggsynth/internal/driver"
	"aggsynth/internal/eval"
)

var evalCmd = &cobra.Command{
	Use:   "eval [files...]",
	Short: "Evaluate samples and update expressions",
	Long: `Construct every sample declared under "samples", print its formatted
form and hash, compare samples of the same type, and run every "uses"
update expression against them.`,
	RunE: runEval,
}

func init() {
	addRunFlags(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	res, err := runPipeline(cmd, s, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if res.Bag.HasErrors() {
		if err := renderDiagnostics(cmd, out, res, "pretty"); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	failed := printOutcomes(out, res)
	if failed || res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// printOutcomes writes one line per sample and use, then the equality of
// every pair of samples that share a type. It reports whether any
// evaluation failed.
func printOutcomes(out io.Writer, res *driver.Result) bool {
	m := res.Machine()
	outcomes := res.Evaluate()
	failed := false
	for _, o := range outcomes {
		if o.Err != nil {
			failed = true
			fmt.Fprintf(out, "%-12s error: %v\n", o.Name, o.Err)
			continue
		}
		if o.Use {
			fmt.Fprintf(out, "%-12s %s\n", o.Name, o.Text)
			continue
		}
		h, err := m.HashValue(o.Value)
		if err != nil {
			fmt.Fprintf(out, "%-12s %s  hash: %v\n", o.Name, o.Text, err)
			continue
		}
		fmt.Fprintf(out, "%-12s %s  hash: %d\n", o.Name, o.Text, h)
	}

	samples := make([]driver.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Use && o.Err == nil && o.Value.Kind == eval.KindObject {
			samples = append(samples, o)
		}
	}
	for i, a := range samples {
		for _, b := range samples[i+1:] {
			if a.Value.Obj.Type != b.Value.Obj.Type {
				continue
			}
			eq, err := m.Equals(a.Value, b.Value)
			if err != nil {
				fmt.Fprintf(out, "%s == %s: %v\n", a.Name, b.Name, err)
				continue
			}
			fmt.Fprintf(out, "%s == %s: %t\n", a.Name, b.Name, eq)
		}
	}
	return failed
}
