package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
)

var (
	pruneMinSupport  int
	cleanupOlderThan int
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove stored associations below the minimum support",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), func(svc associationdomain.Service) error {
			removed, err := svc.Prune(cmd.Context(), pruneMinSupport)
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d associations below support %d\n", removed, pruneMinSupport)
			return nil
		})
	},
}

var cleanupStaleCmd = &cobra.Command{
	Use:   "cleanup-stale",
	Short: "Remove associations not recalculated recently",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), func(svc associationdomain.Service) error {
			removed, err := svc.CleanupStale(cmd.Context(), cleanupOlderThan)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d associations older than %d days\n", removed, cleanupOlderThan)
			return nil
		})
	},
}

func init() {
	defaults := associationdomain.DefaultParams()
	pruneCmd.Flags().IntVar(&pruneMinSupport, "min-support", defaults.MinSupport, "minimum frequency to keep")
	cleanupStaleCmd.Flags().IntVar(&cleanupOlderThan, "older-than-days", defaults.StaleAfterDays, "retention window in days")

	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(cleanupStaleCmd)
}
