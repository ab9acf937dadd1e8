package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/affinity/internal/insights"
)

var insightsLimit int

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Report on stored associations",
	Long: `Report on stored associations.

Subcommands:
  top         Strongest product pairs (default)
  categories  Cross-category affinity matrix
  brands      Cross-brand affinity matrix

Examples:
  affinity insights
  affinity insights top --limit 50
  affinity insights categories`,
	RunE: runInsightsTop,
}

var insightsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Strongest product pairs",
	RunE:  runInsightsTop,
}

var insightsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Cross-category affinity matrix",
	RunE:  runInsightsCategories,
}

var insightsBrandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Cross-brand affinity matrix",
	RunE:  runInsightsBrands,
}

func init() {
	insightsCmd.PersistentFlags().IntVarP(&insightsLimit, "limit", "n", 20, "max rows")
	insightsCmd.AddCommand(insightsTopCmd)
	insightsCmd.AddCommand(insightsCategoriesCmd)
	insightsCmd.AddCommand(insightsBrandsCmd)

	rootCmd.AddCommand(insightsCmd)
}

func runInsightsTop(cmd *cobra.Command, args []string) error {
	return runOneShot(cmd.Context(), func(svc insights.Service) error {
		rows, err := svc.TopPairs(cmd.Context(), insightsLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PRODUCT A\tPRODUCT B\tFREQUENCY")
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\t%d\n", row.ProductAName, row.ProductBName, row.Frequency)
		}
		return w.Flush()
	})
}

func runInsightsCategories(cmd *cobra.Command, args []string) error {
	return runOneShot(cmd.Context(), func(svc insights.Service) error {
		rows, err := svc.CategoryMatrix(cmd.Context(), insightsLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY A\tCATEGORY B\tPAIRS\tFREQUENCY")
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", row.CategoryA, row.CategoryB, row.Pairs, row.Frequency)
		}
		return w.Flush()
	})
}

func runInsightsBrands(cmd *cobra.Command, args []string) error {
	return runOneShot(cmd.Context(), func(svc insights.Service) error {
		rows, err := svc.BrandMatrix(cmd.Context(), insightsLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BRAND A\tBRAND B\tPAIRS\tFREQUENCY")
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", row.BrandA, row.BrandB, row.Pairs, row.Frequency)
		}
		return w.Flush()
	})
}
