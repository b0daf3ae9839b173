package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"brick-manager/feature/missingparts"
	"brick-manager/feature/missingparts/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// missingCmd represents the missing command
var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List missing parts",
	Long: `Lists the parts still missing from the collection, grouped by category.
Use --ids with a filter such as "200-210;229" to restrict the user sets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		ids, _ := flags.GetString("ids")
		spares, _ := flags.GetBool("spares")
		excluded, _ := flags.GetStringSlice("exclude-status")
		jsonOutput, _ := flags.GetBool("json")

		q := missingparts.Query{IDs: ids, IncludeSpares: spares, ExcludeStatuses: excluded}
		if flags.Changed("category") {
			category, _ := flags.GetInt("category")
			q.Category = &category
		}

		c, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer c.logger.Sync()

		result, err := c.missingParts().MissingParts(ctx, q)
		if err != nil {
			return fmt.Errorf("missing parts lookup failed: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printMissing(result)
		c.logger.Info("Missing parts listed",
			zap.Int("records", result.Summary.Records),
			zap.Int("missing_qty", result.Summary.MissingQty),
			zap.Int("unresolved", result.Summary.UnresolvedRecords),
		)
		return nil
	},
}

func printMissing(result *models.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, id := range result.CategoryOrder {
		group := result.Categorized[id]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n== %s (%d) ==\n", group[0].CategoryName, id)
		fmt.Fprintln(w, "SET\tPART\tCOLOR\tQTY\tSPARE\tNAME\tLOCATION")
		for _, r := range group {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\t%s\t%s\n",
				r.InternalID, r.ItemRef, r.ColorRef, r.MissingQty, r.IsSpare, r.DisplayName, r.Location)
		}
	}
	_ = w.Flush()

	fmt.Printf("\nMissing: %d (spares %d, minifigure parts %d)\n",
		result.Summary.MissingQty, result.Summary.MissingSpareQty, result.Summary.MissingMinifigQty)
	if len(result.Unresolved) > 0 {
		fmt.Printf("Unresolved refs: %v\n", result.Unresolved)
	}
}

func init() {
	RootCmd.AddCommand(missingCmd)

	missingCmd.Flags().String("ids", "", "User set id filter, e.g. \"200-210;229\"")
	missingCmd.Flags().Bool("spares", true, "Include spare parts")
	missingCmd.Flags().Int("category", 0, "Only list parts of this category id")
	missingCmd.Flags().StringSlice("exclude-status", nil, "Skip user sets with these statuses")
	missingCmd.Flags().Bool("json", false, "Print the full result as JSON")
}
