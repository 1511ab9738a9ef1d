package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/hpc-usage-report/internal/export"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
	"github.com/j-veylop/hpc-usage-report/internal/services"
	"github.com/j-veylop/hpc-usage-report/internal/ui/components"
	"github.com/j-veylop/hpc-usage-report/internal/ui/runview"
)

type reportFlags struct {
	numMonths   int
	directory   string
	backend     string
	noStorage   bool
	utilization bool
	noFiles     bool
	notify      bool
}

func newReportCmd() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report [date]",
		Short: "Build the usage report for the months before date",
		Long: `Build the usage report for the --num-months months preceding the month of
date (YYYY-MM-DD or YYYY-MM, default: today). For 2023-05-01 and 13 months the
report covers Apr 2022 through Apr 2023.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := models.NewMonth(time.Now())
			if len(args) == 1 {
				var err error
				if month, err = models.ParseMonth(args[0]); err != nil {
					return err
				}
			}
			return runReport(cmd, month, flags)
		},
	}

	cmd.Flags().IntVar(&flags.numMonths, "num-months", services.DefaultNumMonths, "Number of months in the report window")
	cmd.Flags().StringVarP(&flags.directory, "directory", "d", "", "Directory for the workbooks (default: REPORT_OUTPUT_DIR)")
	cmd.Flags().StringVar(&flags.backend, "backend", services.BackendSacct, "Compute usage backend: sacct or sreport")
	cmd.Flags().BoolVar(&flags.noStorage, "no-storage", false, "Skip the storage listings")
	cmd.Flags().BoolVar(&flags.utilization, "utilization", false, "Include cluster utilization percentages")
	cmd.Flags().BoolVar(&flags.noFiles, "no-files", false, "Do not write workbooks")
	cmd.Flags().BoolVar(&flags.notify, "notify", false, "Send a desktop notification when the report is ready")

	return cmd
}

func runReport(cmd *cobra.Command, month models.Month, flags reportFlags) error {
	if flags.numMonths <= 0 {
		return fmt.Errorf("--num-months must be positive, got %d", flags.numMonths)
	}

	mgr, cfg, err := openManager()
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	outDir := cfg.OutputDir
	if flags.directory != "" {
		outDir = flags.directory
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window := models.Window(month, flags.numMonths)
	fmt.Fprintf(cmd.ErrOrStderr(), "Generating report for %s through %s.\n", window[0].Label(), window[len(window)-1].Label())

	opts := services.RunOptions{
		Month:       month,
		NumMonths:   flags.numMonths,
		Backend:     flags.backend,
		Storage:     !flags.noStorage,
		Utilization: flags.utilization,
		Notify:      flags.notify,
	}

	start := time.Now()
	var rep *report.Report
	if isTerminal(os.Stderr) && isTerminal(os.Stdin) {
		rep, err = runview.Run(ctx, mgr, opts, os.Stdin, os.Stderr)
	} else {
		rep, err = mgr.Run(ctx, opts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Querying usage data took %.2f seconds.\n", time.Since(start).Seconds())

	resolver := mgr.Roster().Resolver()
	fmt.Fprintln(cmd.OutOrStdout(), components.RenderSummary(rep, resolver, mgr.Cluster().Capacity(), terminalWidth()))

	if flags.noFiles {
		return nil
	}
	return writeWorkbooks(cmd, mgr, rep, outDir)
}

func writeWorkbooks(cmd *cobra.Command, mgr *services.Manager, rep *report.Report, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	months := rep.Months()
	label := months[len(months)-1].Label()

	usagePath, err := export.WriteUsage(rep, mgr.Roster().Resolver(), outDir)
	if err != nil {
		return err
	}
	groupPath, err := export.WriteGroupList(mgr.Roster().Groups(), outDir, label)
	if err != nil {
		return err
	}
	userPath, err := export.WriteUserList(mgr.Roster().Users(), outDir, label)
	if err != nil {
		return err
	}

	for _, p := range []string{usagePath, groupPath, userPath} {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", p)
	}
	return nil
}
