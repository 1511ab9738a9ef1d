// Package main is the entry point for the cluster usage report CLI.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/j-veylop/hpc-usage-report/internal/config"
	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/services"
	"github.com/j-veylop/hpc-usage-report/internal/version"
)

const defaultWidth = 100

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "hpcreport",
		Short: "Monthly HPC cluster usage reports",
		Long: `hpcreport collects per-group CPU, GPU, memory and storage usage from the
cluster accounting tools and renders monthly reports as terminal charts and
xlsx workbooks.

Configuration is read from .env files and the environment:
  REPORT_DATA_PATH   data directory (default: current directory)
  ROSTER_PATH        group and user roster (default: $REPORT_DATA_PATH/roster.json)
  CACHE_DB_PATH      usage cache (default: $REPORT_DATA_PATH/usage.db)
  CLUSTER_CONFIG     cluster description (default: $REPORT_DATA_PATH/cluster.yaml)
  REPORT_OUTPUT_DIR  workbook directory (default: current directory)
  SACCT_BIN, SREPORT_BIN, BACKEND_TIMEOUT`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend commands and cache activity")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newGroupCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newStorageCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// openManager loads the configuration and opens the roster and cache.
func openManager() (*services.Manager, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	mgr, err := services.NewManager(cfg, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return mgr, cfg, nil
}

func closeManager(mgr *services.Manager) {
	if err := mgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", err)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(f.Fd())
}

func terminalWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}
