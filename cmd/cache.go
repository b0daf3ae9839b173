package cmd

import (
	"fmt"

	"brick-manager/feature/missingparts"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cacheCmd groups image cache commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local image cache",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// cacheResolveCmd downloads images into the cache
var cacheResolveCmd = &cobra.Command{
	Use:   "resolve <url>...",
	Short: "Resolve image URLs to cached local files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer c.logger.Sync()

		for _, src := range args {
			fmt.Printf("%s -> %s\n", src, c.cache.Resolve(cmd.Context(), src))
		}

		stats := c.cache.Stats()
		c.logger.Info("Image cache resolve completed",
			zap.Int("ready", stats.Ready),
			zap.Int("failed", stats.Failed),
		)
		return nil
	},
}

// cacheWarmCmd resolves the images of every missing part
var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Download the images of all currently missing parts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer c.logger.Sync()

		ids, _ := cmd.Flags().GetString("ids")
		// Aggregation resolves images through the cache.
		result, err := c.missingParts().MissingParts(ctx, missingparts.Query{IDs: ids, IncludeSpares: true})
		if err != nil {
			return fmt.Errorf("failed to warm image cache: %w", err)
		}

		stats := c.cache.Stats()
		fmt.Printf("Parts: %d, images ready: %d, failed: %d\n", len(result.Flat), stats.Ready, stats.Failed)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheResolveCmd, cacheWarmCmd)

	cacheWarmCmd.Flags().String("ids", "", "User set id filter, e.g. \"200-210;229\"")
}
