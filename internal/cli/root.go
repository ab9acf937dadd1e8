// Package cli provides the command-line interface for affinity.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/smallbiznis/affinity/internal/association"
	"github.com/smallbiznis/affinity/internal/catalog"
	"github.com/smallbiznis/affinity/internal/clock"
	"github.com/smallbiznis/affinity/internal/config"
	"github.com/smallbiznis/affinity/internal/insights"
	"github.com/smallbiznis/affinity/internal/migration"
	"github.com/smallbiznis/affinity/internal/observability"
	"github.com/smallbiznis/affinity/pkg/db"
	"github.com/smallbiznis/affinity/pkg/id"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "affinity",
	Short: "Product association engine",
	Long: `Affinity mines completed orders for frequently-bought-together product
pairs. It maintains a product association table that downstream surfaces
(recommendation widgets, merchandising reports) read from.

The engine picks one of three execution strategies based on order volume,
weights recent purchases higher, and applies business rules such as
cross-category boosts and per-product caps.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// baseOptions is the dependency graph every command shares.
func baseOptions() []fx.Option {
	opts := []fx.Option{
		config.Module,
		observability.Module,
		clock.Module,
		id.Module,
		db.Module,
		migration.Module,
		catalog.Module,
		association.Module,
		insights.Module,
	}
	if !verbose {
		opts = append(opts, fx.NopLogger)
	}
	return opts
}

// runOneShot builds the application graph, executes fn inside it, and then
// tears the graph down. Used by every command except the scheduler.
func runOneShot(ctx context.Context, fn any, extra ...fx.Option) error {
	opts := append(baseOptions(), extra...)
	opts = append(opts, fx.Invoke(fn))

	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(ctx)
}
