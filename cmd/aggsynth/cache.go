package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aggsynth/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the member-set cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached member set",
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := s.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		cache, err := driver.OpenDiskCache("aggsynth", s.manifest.Config.Synth.CacheDir)
		if err != nil {
			return err
		}
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("clean %s: %w", cache.Dir(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
}
