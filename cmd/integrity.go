package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"brick-manager/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the image cache, image mirror and collection schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer c.logger.Sync()

		report := c.integrity().CheckAll(cmd.Context())
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// integrityCacheCmd represents the integrity cache command
var integrityCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Check and fix the local image cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer c.logger.Sync()
		svc := c.integrity()
		logg := c.logger

		report := svc.CheckCache()
		if !report.PlaceholderExists {
			logg.Warn("Placeholder image is missing", zap.String("placeholder", c.cfg.Images.Placeholder))
		}
		if report.Exists && report.Writable {
			logg.Info("Image cache is intact.", zap.String("dir", report.Dir), zap.Int("files", report.Files))
			return nil
		}

		logg.Warn("Image cache problem detected", zap.String("dir", report.Dir), zap.String("error", report.Error))
		if !fixFlag {
			logg.Info("Run with --fix to create the cache directory.")
			return nil
		}
		if err := svc.FixCache(); err != nil {
			return fmt.Errorf("failed to fix image cache: %w", err)
		}
		logg.Info("Image cache fixed successfully.")
		return nil
	},
}

// integrityMirrorCmd represents the integrity mirror command
var integrityMirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Check and fix the image mirror bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer c.logger.Sync()
		svc := c.integrity()
		logg := c.logger

		report, err := svc.CheckMirror(ctx)
		if err != nil {
			return fmt.Errorf("mirror check failed: %w", err)
		}

		switch {
		case !report.Enabled:
			logg.Info("Image mirror is disabled.")
		case report.BucketExists:
			logg.Info("Mirror bucket is present.", zap.String("bucket", report.Bucket))
		case fixFlag:
			if err := svc.FixMirror(ctx); err != nil {
				return fmt.Errorf("failed to fix mirror: %w", err)
			}
			logg.Info("Mirror bucket created.", zap.String("bucket", report.Bucket))
		default:
			logg.Warn("Mirror bucket is missing", zap.String("bucket", report.Bucket))
			logg.Info("Run with --fix to create it.")
		}
		return nil
	},
}

// integritySchemaCmd represents the integrity schema command
var integritySchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the collection database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer c.logger.Sync()
		logg := c.logger

		report, err := c.integrity().CheckSchema()
		if err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}

		if report.Matched {
			logg.Info("Collection schema matches expected definition.")
			return nil
		}

		logg.Warn("Collection schema mismatches found")
		for table, tbl := range report.Tables {
			if tbl.Status != "ok" && len(tbl.MissingColumns) > 0 {
				logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
			}
		}
		for _, e := range report.Errors {
			logg.Error("Inspection Error", zap.String("error", e))
		}
		return nil
	},
}

// integritySyncCmd represents the integrity sync command
var integritySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the image cache directory with the mirror bucket",
	Long: `Compares cached images on disk with the objects in the mirror bucket.
Use --sync to plan uploads and restores, --purge to plan deletion of images
present on one side only. Nothing is changed without --confirm.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		doSync, _ := flags.GetBool("sync")
		doPurge, _ := flags.GetBool("purge")
		confirm, _ := flags.GetBool("confirm")
		dryRun, _ := flags.GetBool("dry-run")
		jsonOutput, _ := flags.GetBool("json")

		c, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer c.logger.Sync()
		logg := c.logger

		opts := reconcile.Options{DoSync: doSync, DoPurge: doPurge, Confirmed: confirm, DryRun: dryRun}
		plan, executed, err := c.integrity().SyncMirror(ctx, opts)
		if err != nil {
			return fmt.Errorf("mirror sync failed after %d actions: %w", executed, err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}

		fmt.Println("\n=== Image Mirror Reconcile ===")
		fmt.Printf("Total Images: %d\n", plan.Summary.TotalItems)
		fmt.Printf("Missing Locally: %d\n", plan.Summary.MissingLocal)
		fmt.Printf("Missing In Mirror: %d\n", plan.Summary.MissingMirror)
		fmt.Printf("Size Mismatches: %d\n", plan.Summary.Mismatches)
		fmt.Printf("Planned Sync Actions: %d\n", plan.Summary.SyncActions)
		fmt.Printf("Planned Purge Actions: %d\n", plan.Summary.PurgeActions)
		fmt.Printf("Executed: %d\n", executed)

		if len(plan.Actions) > 0 && executed == 0 {
			logg.Info("Run with --confirm to apply the planned actions.")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(integrityCacheCmd, integrityMirrorCmd, integritySchemaCmd, integritySyncCmd)

	integrityCacheCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the cache directory")
	integrityMirrorCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the mirror bucket")

	integritySyncCmd.Flags().Bool("sync", false, "Plan uploads of local-only and restores of mirror-only images")
	integritySyncCmd.Flags().Bool("purge", false, "Plan deletion of images present on one side only")
	integritySyncCmd.Flags().Bool("confirm", false, "Apply the planned actions")
	integritySyncCmd.Flags().Bool("dry-run", false, "Plan only, even with --confirm")
	integritySyncCmd.Flags().Bool("json", false, "Print the full plan as JSON")
}
