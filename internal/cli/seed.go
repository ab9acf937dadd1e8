package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/affinity/internal/seed"
)

var (
	seedProducts int
	seedOrders   int
	seedDaysBack int
	seedSeed     int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty database with a synthetic catalog",
	Long: `Fill an empty database with a synthetic catalog and order history.

Intended for local development and strategy experiments. Refuses to run
against a database that already contains orders.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := seed.Params{
			Products: seedProducts,
			Orders:   seedOrders,
			DaysBack: seedDaysBack,
			Seed:     seedSeed,
		}
		return runOneShot(cmd.Context(), func(db *gorm.DB, log *zap.Logger) error {
			return seed.Run(cmd.Context(), db, log, params)
		})
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedProducts, "products", 200, "number of products")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 5000, "number of orders")
	seedCmd.Flags().IntVar(&seedDaysBack, "days", 365, "order history depth in days")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 42, "random seed")

	rootCmd.AddCommand(seedCmd)
}
