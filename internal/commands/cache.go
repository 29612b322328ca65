package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/btcnav/btcnav/internal/cachestore"
)

var cacheKey string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache administration",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached records",
	Long: `Remove all cached records, or a single one with --key.
An in-flight refresh racing this clear simply repopulates the key afterwards;
that is the documented tolerance, no locking is attempted.`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().StringVarP(&cacheKey, "key", "k", "", "logical cache key to clear (default: all)")
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger(cmd.Context())
	if err != nil {
		return err
	}

	store := cachestore.NewFileStore(cfg.Cache.Dir, logger)

	var removed int
	if cacheKey != "" {
		removed = store.Clear(cacheKey)
	} else {
		removed = store.ClearAll()
	}

	fmt.Printf("removed %d cache record(s)\n", removed)
	return nil
}
