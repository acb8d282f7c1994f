package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aggsynth/internal/diag"
	"aggsynth/internal/diagfmt"
	"aggsynth/internal/driver"
	"aggsynth/internal/synth"
	"aggsynth/internal/types"
)

var synthCmd = &cobra.Command{
	Use:   "synth [files...]",
	Short: "Synthesize members and report diagnostics",
	Long: `Synthesize the members of every aggregate declared in the given YAML
documents, or in [synth].inputs of aggsynth.toml when no files are given.`,
	RunE: runSynth,
}

func init() {
	addRunFlags(synthCmd)
	synthCmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json)")
	synthCmd.Flags().String("emit", "none", "artifact to print (none|members|json|lowered)")
}

// addRunFlags registers the flags shared by every command that runs the
// pipeline.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("jobs", 0, "parallel synthesis workers, overrides [synth].jobs")
	cmd.Flags().Int("max-diagnostics", 0, "diagnostic limit, overrides [synth].max_diagnostics")
	cmd.Flags().Bool("no-cache", false, "neither read nor write the member-set cache")
	cmd.Flags().Bool("timings", false, "report phase timings")
}

// runPipeline resolves inputs and options and runs the driver.
func runPipeline(cmd *cobra.Command, s *session, args []string) (*driver.Result, error) {
	cfg := s.manifest.Config.Synth
	paths := args
	if len(paths) == 0 {
		paths = s.manifest.InputPaths()
	}
	if len(paths) == 0 {
		return nil, errors.New("no input files: pass files or set [synth].inputs in aggsynth.toml")
	}

	opts := driver.Options{Jobs: cfg.Jobs, MaxDiagnostics: cfg.MaxDiagnostics, Logger: s.log}
	if v, _ := cmd.Flags().GetInt("jobs"); v > 0 {
		opts.Jobs = v
	}
	if v, _ := cmd.Flags().GetInt("max-diagnostics"); v > 0 {
		opts.MaxDiagnostics = v
	}
	opts.Timings, _ = cmd.Flags().GetBool("timings")
	if noCache, _ := cmd.Flags().GetBool("no-cache"); cfg.Cache && !noCache {
		cache, err := driver.OpenDiskCache("aggsynth", cfg.CacheDir)
		if err != nil {
			s.log.Warn("cache disabled", zap.Error(err))
		} else {
			opts.Cache = cache
		}
	}
	return driver.Run(contextOf(cmd), paths, opts)
}

func runSynth(cmd *cobra.Command, args []string) (err error) {
	format, _ := cmd.Flags().GetString("format")
	emit, _ := cmd.Flags().GetString("emit")
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}
	switch emit {
	case "none", "members", "json", "lowered":
	default:
		return fmt.Errorf("unsupported emit %q (must be none, members, json or lowered)", emit)
	}

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
	if err := renderDiagnostics(cmd, out, res, format); err != nil {
		return err
	}
	if err := emitArtifact(out, res, emit); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func renderDiagnostics(cmd *cobra.Command, out io.Writer, res *driver.Result, format string) error {
	res.Bag.Sort()
	switch format {
	case "json":
		return diagfmt.JSON(out, res.Bag, res.FileSet, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true})
	case "short":
		if text := diag.FormatShortDiagnostics(res.Bag.Items(), res.FileSet, false); text != "" {
			fmt.Fprintln(out, text)
		}
		return nil
	}
	enabled, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	diagfmt.Pretty(out, res.Bag, res.FileSet, diagfmt.PrettyOpts{Color: enabled, ShowNotes: true})
	if n := res.Bag.Len(); n > 0 {
		fmt.Fprintf(out, "\n%s\n", summaryLine(res.Bag, enabled))
	}
	return nil
}

func summaryLine(bag *diag.Bag, enabled bool) string {
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	c := color.New(color.Bold)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprintf("%d error(s), %d warning(s)", errs, warns)
}

func emitArtifact(out io.Writer, res *driver.Result, emit string) error {
	switch emit {
	case "members":
		for _, ms := range res.Sets {
			writeMemberSet(out, res.Types, ms)
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Sets)
	case "lowered":
		for i, use := range res.Unit.Uses {
			if res.Programs[i] == nil {
				fmt.Fprintf(out, "%s: rejected\n", use.Name)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n%s\n", use.Name, use.Expr, res.Programs[i])
		}
	}
	return nil
}

// writeMemberSet prints one line per present slot:
//
//	Point (struct, readonly)
//	  Equals(Point) bool        synthesized
func writeMemberSet(out io.Writer, in *types.Interner, ms *synth.MemberSet) {
	flags := []string{ms.Rep.String()}
	if ms.Immutable {
		flags = append(flags, "readonly")
	}
	if ms.Sealed && !ms.IsValue() {
		flags = append(flags, "sealed")
	}
	if ms.Base != types.NoTypeID {
		flags = append(flags, "base "+types.Label(in, ms.Base))
	}
	fmt.Fprintf(out, "%s (%s)\n", ms.TypeName, strings.Join(flags, ", "))
	if ms.Fatal {
		fmt.Fprintln(out, "  <no members: declaration is invalid>")
		return
	}
	for i, c := range ms.Components {
		state := synth.SlotAbsent
		if i < len(ms.Accessors) {
			state = ms.Accessors[i].State
		}
		fmt.Fprintf(out, "  %-32s %s\n", c.Name+" "+types.Label(in, c.Type), state)
	}
	for _, t := range synth.Targets() {
		sl := ms.Slot(t)
		if !sl.Present() {
			continue
		}
		state := sl.State.String()
		if sl.State == synth.SlotAdopted && !sl.Valid {
			state += " (invalid)"
		}
		fmt.Fprintf(out, "  %-32s %s\n", t.String(), state)
	}
}
