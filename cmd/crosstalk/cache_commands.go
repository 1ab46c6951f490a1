package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"crosstalk/internal/clipcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the synthesized clip cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show clip cache size and hit counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := clipcache.Open(cmd.Context(), cfg.ClipCache.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, cacheStatsView{
					Path:    stats.Path,
					Enabled: cfg.ClipCache.Enabled,
					Entries: stats.Entries,
					Bytes:   stats.Bytes,
					Hits:    stats.Hits,
				})
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Path", stats.Path},
				{"Enabled", yesNo(cfg.ClipCache.Enabled)},
				{"Entries", strconv.FormatInt(stats.Entries, 10)},
				{"Size", humanize.IBytes(uint64(max(stats.Bytes, 0)))},
				{"Hits", strconv.FormatInt(stats.Hits, 10)},
				{"Oldest", formatTime(stats.Oldest)},
				{"Newest", formatTime(stats.Newest)},
			}
			fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached clip",
		Long: `Remove every cached clip.

--purge deletes the database files without opening them, which also recovers
from a cache written by an incompatible version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.ClipCache.Path

			if purge {
				removed := 0
				for _, name := range []string{path, path + "-wal", path + "-shm"} {
					if err := os.Remove(name); err != nil {
						if errors.Is(err, fs.ErrNotExist) {
							continue
						}
						return fmt.Errorf("remove %s: %w", name, err)
					}
					removed++
				}
				if removed == 0 {
					fmt.Fprintf(out, "No clip cache at %s\n", path)
					return nil
				}
				fmt.Fprintf(out, "Purged clip cache at %s\n", path)
				return nil
			}

			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "No clip cache at %s\n", path)
				return nil
			}
			store, err := clipcache.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d cached clip(s) from %s\n", removed, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete the cache database files outright")
	return cmd
}

type cacheStatsView struct {
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
	Entries int64  `json:"entries"`
	Bytes   int64  `json:"bytes"`
	Hits    int64  `json:"hits"`
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", value.Local().Format(time.DateTime), humanize.Time(value))
}
