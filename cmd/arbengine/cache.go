package main

import (
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "inspect a running engine's account cache",
	}
	cmd.AddCommand(newCacheStatsCommand())
	return cmd
}

func newCacheStatsCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "print the running engine's cache stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats map[string]any
			if err := fetchJSON(addr, "/debug/cache", &stats); err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:9090", "debug HTTP address of a running engine")
	return cmd
}
