package usage

import (
	"context"
	"fmt"

	"github.com/j-veylop/hpc-usage-report/internal/backend"
	"github.com/j-veylop/hpc-usage-report/internal/cache"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/parse"
	"github.com/j-veylop/hpc-usage-report/internal/roster"
)

// AccountSummary reads per-account totals from sreport. It does not see
// unattributed usage, so it emits no misc group.
type AccountSummary struct {
	client   *backend.Client
	cache    *cache.Cache
	resolver *roster.Resolver
}

func NewAccountSummary(client *backend.Client, c *cache.Cache, resolver *roster.Resolver) *AccountSummary {
	return &AccountSummary{client: client, cache: c, resolver: resolver}
}

func (g *AccountSummary) Name() string { return "sreport" }

func (g *AccountSummary) Produce(ctx context.Context, month models.Month) (models.MonthlyUsage, error) {
	out := make(models.MonthlyUsage)
	for _, gid := range g.resolver.Groups() {
		record, err := g.cache.GetOrCompute(gid, month.Key(), func() (models.UsageRecord, error) {
			return g.query(ctx, month, gid)
		})
		if err != nil {
			return nil, err
		}
		setRecord(out, gid, record)
	}
	return out, nil
}

// query sums the summaries of every project the group owns, or of the group
// account itself when it owns none.
func (g *AccountSummary) query(ctx context.Context, month models.Month, gid string) (models.UsageRecord, error) {
	accounts := g.resolver.Projects(gid)
	if len(accounts) == 0 {
		accounts = []string{gid}
	}

	record := models.NewUsageRecord(models.ComputeKeys)
	for _, account := range accounts {
		output, err := g.client.AccountSummary(ctx, month, gid, account)
		if err != nil {
			return nil, err
		}
		summary, err := parse.ParseAccountSummary(output)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", account, err)
		}
		record[models.KeyCPUUsage] += summary.CPUHours()
		record[models.KeyGPUUsage] += summary.GPUHours()
		record[models.KeyReqMem] += summary.MemGBHours()
	}
	// sreport only reports one memory figure.
	record[models.KeyAllocMem] = record[models.KeyReqMem]
	return record, nil
}
