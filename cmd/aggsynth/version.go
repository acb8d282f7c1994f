package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aggsynth/internal/version"
)

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		info := version.Current()
		switch strings.ToLower(versionFormat) {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case "pretty":
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
		enabled, err := useColor(cmd, os.Stdout)
		if err != nil {
			return err
		}
		prev := color.NoColor
		color.NoColor = !enabled
		defer func() { color.NoColor = prev }()

		fmt.Fprintf(out, "aggsynth %s\n", version.Colored())
		if info.GitCommit != "" {
			fmt.Fprintf(out, "commit: %s\n", info.GitCommit)
		}
		if info.BuildDate != "" {
			fmt.Fprintf(out, "built:  %s\n", info.BuildDate)
		}
		return nil
	},
}
