package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/services"
	"github.com/j-veylop/hpc-usage-report/internal/ui/components"
)

func newCacheCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the usage cache",
	}
	cmd.PersistentFlags().StringVar(&backend, "backend", services.BackendSacct, "Cache of the compute backend: sacct or sreport")
	cmd.AddCommand(newCacheImportCmd(&backend), newCacheListCmd(&backend), newCacheDropCmd(&backend))
	return cmd
}

func newCacheImportCmd(backend *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load a legacy JSON cache dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			n, err := mgr.ImportCache(cmd.Context(), *backend, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cached records\n", n)
			return nil
		},
	}
}

func newCacheListCmd(backend *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Summarize the cached months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			store, err := mgr.CacheDB(*backend)
			if err != nil {
				return err
			}
			summaries, err := store.CachedMonths(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(summaries))
			for i, s := range summaries {
				updated := ""
				if !s.LastUpdated.IsZero() {
					updated = s.LastUpdated.Format("2006-01-02 15:04")
				}
				rows[i] = []string{
					s.MonthKey,
					strconv.Itoa(s.Groups),
					strconv.Itoa(s.InvalidRows),
					components.FormatValue(s.CPUHourTotal),
					updated,
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), components.RenderList(
				[]string{"Month", "Groups", "Invalid", "CPU hours", "Updated"}, rows))
			return nil
		},
	}
}

func newCacheDropCmd(backend *string) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <month>",
		Short: "Forget a cached month so the next report recomputes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := models.ParseMonth(args[0])
			if err != nil {
				return err
			}

			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			store, err := mgr.CacheDB(*backend)
			if err != nil {
				return err
			}
			n, err := store.DeleteMonth(cmd.Context(), month.Key())
			if err != nil {
				return err
			}
			if n > 0 {
				if err := store.Vacuum(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped %d cached records for %s\n", n, month.Label())
			return nil
		},
	}
}
