package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "inspect a running engine's route index",
	}
	cmd.AddCommand(newRoutesListCommand())
	return cmd
}

func newRoutesListCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "print the running engine's route index stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats map[string]any
			if err := fetchJSON(addr, "/debug/routes", &stats); err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:9090", "debug HTTP address of a running engine")
	return cmd
}

func fetchJSON(addr, path string, out any) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + path)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(cmdOut)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
