package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
	"github.com/j-veylop/hpc-usage-report/internal/roster"
	"github.com/j-veylop/hpc-usage-report/internal/services/storagewatch"
	"github.com/j-veylop/hpc-usage-report/internal/ui/components"
	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

func newStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Storage listings",
	}
	cmd.AddCommand(newStorageWatchCmd())
	return cmd
}

func newStorageWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-render per-group storage whenever a listing changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			month := models.NewMonth(time.Now())
			svc, err := mgr.WatchStorage(month)
			if err != nil {
				return fmt.Errorf("failed to watch storage listings: %w", err)
			}
			defer svc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			resolver := mgr.Roster().Resolver()
			capacity := mgr.Cluster().Capacity().StorageGB
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-svc.Events():
					renderStorageEvent(cmd.OutOrStdout(), ev, month, resolver, capacity)
				}
			}
		},
	}
}

func renderStorageEvent(w io.Writer, ev storagewatch.Event, month models.Month, resolver *roster.Resolver, capacity float64) {
	stamp := time.Now().Format("15:04:05")
	if ev.Type == storagewatch.EventError {
		fmt.Fprintln(w, styles.ErrorTextStyle.Render(fmt.Sprintf("[%s] %v", stamp, ev.Error)))
		return
	}

	rep, err := report.New([]models.Month{month}, []models.MonthlyUsage{ev.Usage}, resolver.Groups())
	if err != nil {
		fmt.Fprintln(w, styles.ErrorTextStyle.Render(err.Error()))
		return
	}

	title := "Storage loaded"
	if ev.Type == storagewatch.EventStorageChanged {
		title = "Storage changed: " + ev.Path
	}
	fmt.Fprintln(w, styles.SubTitleStyle.Render(fmt.Sprintf("[%s] %s", stamp, title)))

	tiers, rows := components.StorageRows(rep, resolver)
	if len(tiers) == 0 {
		fmt.Fprintln(w, styles.HelpStyle.Render("No storage listings configured"))
		return
	}
	fmt.Fprintln(w, components.RenderStorageTable(tiers, rows))

	var used float64
	for _, r := range rows {
		for _, v := range r.Values {
			used += v
		}
	}
	fmt.Fprintln(w, components.SimpleCapacityBar("used", used, capacity, 60))
}
