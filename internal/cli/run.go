package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
)

var (
	runWindowDays         int
	runMinSupport         int
	runCrossCategoryBoost float64
	runSameBrandPenalty   float64
	runPerProductCap      int
	runRecencyWeight      bool
	runMaxPairs           int
	runForceStrategy      string
	runCapLargeRuns       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild the product association table",
	Long: `Rebuild the product association table from the trailing order window.

The engine counts line items inside the window and picks a strategy:
small datasets are scored in memory, medium datasets in a single SQL
aggregation, and large datasets in incremental order-id ranges.

Examples:
  affinity run
  affinity run --window-days 90 --min-support 3
  affinity run --force-strategy incremental --cap-large-runs`,
	RunE: runRebuild,
}

func init() {
	defaults := associationdomain.DefaultParams()
	runCmd.Flags().IntVar(&runWindowDays, "window-days", defaults.WindowDays, "trailing order window in days")
	runCmd.Flags().IntVar(&runMinSupport, "min-support", defaults.MinSupport, "minimum weighted frequency to keep a pair")
	runCmd.Flags().Float64Var(&runCrossCategoryBoost, "cross-category-boost", defaults.CrossCategoryBoost, "multiplier for pairs spanning root categories")
	runCmd.Flags().Float64Var(&runSameBrandPenalty, "same-brand-penalty", defaults.SameBrandPenalty, "multiplier for pairs sharing a brand")
	runCmd.Flags().IntVar(&runPerProductCap, "per-product-cap", defaults.PerProductCap, "max associations kept per product")
	runCmd.Flags().BoolVar(&runRecencyWeight, "recency-weight", defaults.RecencyWeight, "weight recent orders higher")
	runCmd.Flags().IntVar(&runMaxPairs, "max-pairs", defaults.MaxPairs, "hard ceiling on candidate pairs per run")
	runCmd.Flags().StringVar(&runForceStrategy, "force-strategy", "", "override strategy selection (direct, single_pass, incremental)")
	runCmd.Flags().BoolVar(&runCapLargeRuns, "cap-large-runs", false, "re-apply the per-product cap after an incremental run")

	rootCmd.AddCommand(runCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	forced, err := associationdomain.ParseStrategyKind(runForceStrategy)
	if err != nil {
		return err
	}
	params := associationdomain.Params{
		WindowDays:         runWindowDays,
		MinSupport:         runMinSupport,
		CrossCategoryBoost: runCrossCategoryBoost,
		SameBrandPenalty:   runSameBrandPenalty,
		PerProductCap:      runPerProductCap,
		RecencyWeight:      runRecencyWeight,
		MaxPairs:           runMaxPairs,
		CapLargeRuns:       runCapLargeRuns,
		ForceStrategy:      forced,
	}

	return runOneShot(cmd.Context(), func(svc associationdomain.Service) error {
		result, err := svc.Rebuild(cmd.Context(), params)
		if result != nil {
			printRunResult(result)
		}
		return err
	})
}

func printRunResult(result *associationdomain.RunResult) {
	fmt.Printf("run %s (%s)\n", result.RunID, result.Strategy)
	fmt.Printf("  window        %s .. %s\n",
		result.WindowStart.Format("2006-01-02"), result.WindowEnd.Format("2006-01-02"))
	fmt.Printf("  duration      %s\n", result.Duration)
	fmt.Printf("  line items    %d\n", result.Stats.LineItems)
	fmt.Printf("  considered    %d\n", result.Stats.PairsConsidered)
	fmt.Printf("  accepted      %d\n", result.Stats.PairsAccepted)
	if result.Stats.DroppedByCap > 0 {
		fmt.Printf("  dropped (cap) %d\n", result.Stats.DroppedByCap)
	}
	if result.Stats.DroppedMissingMeta > 0 {
		fmt.Printf("  dropped (meta) %d\n", result.Stats.DroppedMissingMeta)
	}
	if result.Stats.DroppedByCeiling > 0 {
		fmt.Printf("  dropped (ceiling) %d\n", result.Stats.DroppedByCeiling)
	}
	if result.Stats.BatchesCommitted > 0 || result.Stats.BatchesFailed > 0 {
		fmt.Printf("  batches       %d committed, %d failed\n",
			result.Stats.BatchesCommitted, result.Stats.BatchesFailed)
	}
	if result.Stats.Pruned > 0 {
		fmt.Printf("  pruned        %d\n", result.Stats.Pruned)
	}
	fmt.Printf("  stored        %d\n", result.Stats.StoredAssociations)
}
