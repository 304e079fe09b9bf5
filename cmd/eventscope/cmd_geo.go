package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/eventscope/internal/config"
	"github.com/user/eventscope/internal/geo"
)

func init() {
	rootCmd.AddCommand(geoCmd)
	geoCmd.AddCommand(geoLookupCmd)
}

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Inspect the location table",
}

var geoLookupCmd = &cobra.Command{
	Use:   "lookup <location>...",
	Short: "Show how locations resolve against the table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadGeo(loadConfig())
		if err != nil {
			return err
		}
		for _, key := range args {
			resolved, entry := table.Resolve(key)
			note := ""
			if resolved != key {
				note = " (fallback)"
			}
			fmt.Fprintf(os.Stdout, "%s -> %s%s: %s (%.6f, %.6f)\n", key, resolved, note, entry.Country, entry.Lat, entry.Lng)
		}
		return nil
	},
}

func loadGeo(cfg *config.Config) (*geo.Table, error) {
	table, err := geo.Load(cfg.Geo.TablePath, cfg.Geo.DefaultLocation, geo.Entry{
		Lat: cfg.Geo.DefaultLat,
		Lng: cfg.Geo.DefaultLng,
	})
	if err != nil {
		return nil, fmt.Errorf("load location table: %w", err)
	}
	return table, nil
}
