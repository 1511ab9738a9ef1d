package backend

import (
	"context"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/parse"
)

// Tools names the accounting executables.
type Tools struct {
	Sacct   string
	Sreport string
}

// DefaultTools resolves the executables from PATH.
var DefaultTools = Tools{Sacct: "sacct", Sreport: "sreport"}

// Client issues the accounting queries used by the usage generators.
type Client struct {
	runner Runner
	tools  Tools
}

func NewClient(runner Runner, tools Tools) *Client {
	if tools.Sacct == "" {
		tools.Sacct = DefaultTools.Sacct
	}
	if tools.Sreport == "" {
		tools.Sreport = DefaultTools.Sreport
	}
	return &Client{runner: runner, tools: tools}
}

// SacctArgs lists the arguments of a whole-month job query across all users.
func SacctArgs(month models.Month, layout parse.Layout) []string {
	return []string{
		"-a",
		"-S", month.Key(),
		"-E", month.EndKey(),
		"-o", layout.Format(),
	}
}

// Jobs returns the raw job listing for month.
func (c *Client) Jobs(ctx context.Context, month models.Month, layout parse.Layout) (string, error) {
	out, err := c.runner.Run(ctx, c.tools.Sacct, SacctArgs(month, layout)...)
	if err != nil {
		return "", &Error{Command: c.tools.Sacct, Month: month.Key(), Err: err}
	}
	return out, nil
}

// SreportAccountArgs lists the arguments of a per-account summary query.
func SreportAccountArgs(month models.Month, account string) []string {
	return []string{
		"-P", "-n", "cluster", "AccountUtilizationByUser",
		"Accounts=" + account,
		"-T", "cpu,mem,gres/gpu",
		"-t", "Minutes",
		"start=" + month.Key(),
		"end=" + month.EndKey(),
	}
}

// AccountSummary returns the summary lines for one account.
func (c *Client) AccountSummary(ctx context.Context, month models.Month, group, account string) (string, error) {
	out, err := c.runner.Run(ctx, c.tools.Sreport, SreportAccountArgs(month, account)...)
	if err != nil {
		return "", &Error{Command: c.tools.Sreport, Month: month.Key(), Group: group, Err: err}
	}
	return out, nil
}

// SreportUtilizationArgs lists the arguments of a cluster utilization query.
func SreportUtilizationArgs(month models.Month) []string {
	return []string{
		"-P", "cluster", "Utilization",
		"-T", "cpu,gres/gpu",
		"-t", "Percent",
		"start=" + month.Key(),
		"end=" + month.EndKey(),
	}
}

// Utilization returns the cluster utilization table for month.
func (c *Client) Utilization(ctx context.Context, month models.Month) (string, error) {
	out, err := c.runner.Run(ctx, c.tools.Sreport, SreportUtilizationArgs(month)...)
	if err != nil {
		return "", &Error{Command: c.tools.Sreport, Month: month.Key(), Err: err}
	}
	return out, nil
}
