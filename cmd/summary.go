package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"brick-manager/feature/missingparts"

	"github.com/spf13/cobra"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show collection totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		ids, _ := flags.GetString("ids")
		excluded, _ := flags.GetStringSlice("exclude-status")
		jsonOutput, _ := flags.GetBool("json")

		c, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer c.logger.Sync()

		summary, err := c.missingParts().Summary(ctx, missingparts.Query{IDs: ids, ExcludeStatuses: excluded})
		if err != nil {
			return fmt.Errorf("summary failed: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		fmt.Println("\n=== Collection Summary ===")
		fmt.Printf("Records: %d\n", summary.Records)
		fmt.Printf("Owned: %d\n", summary.OwnedQty)
		fmt.Printf("Missing: %d\n", summary.MissingQty)
		fmt.Printf("Missing Spares: %d\n", summary.MissingSpareQty)
		fmt.Printf("Missing Minifigure Parts: %d\n", summary.MissingMinifigQty)
		if summary.InvalidFilterTokens > 0 {
			fmt.Printf("Ignored Filter Tokens: %d\n", summary.InvalidFilterTokens)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().String("ids", "", "User set id filter, e.g. \"200-210;229\"")
	summaryCmd.Flags().StringSlice("exclude-status", missingparts.DefaultExcludedStatuses, "Skip user sets with these statuses")
	summaryCmd.Flags().Bool("json", false, "Print the summary as JSON")
}
