package usage

import (
	"context"

	"github.com/j-veylop/hpc-usage-report/internal/backend"
	"github.com/j-veylop/hpc-usage-report/internal/cache"
	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/parse"
	"github.com/j-veylop/hpc-usage-report/internal/roster"
)

// JobAccounting sums per-job usage from the sacct job listing.
type JobAccounting struct {
	client   *backend.Client
	cache    *cache.Cache
	resolver *roster.Resolver
	layout   parse.Layout
}

// NewJobAccounting returns a job accounting generator. A nil layout selects
// parse.SacctLayout.
func NewJobAccounting(client *backend.Client, c *cache.Cache, resolver *roster.Resolver, layout parse.Layout) *JobAccounting {
	if layout == nil {
		layout = parse.SacctLayout
	}
	return &JobAccounting{client: client, cache: c, resolver: resolver, layout: layout}
}

func (g *JobAccounting) Name() string { return "sacct" }

// Produce returns the compute keys for every known group and misc. The job
// listing is fetched once, and only if some group is not cached.
func (g *JobAccounting) Produce(ctx context.Context, month models.Month) (models.MonthlyUsage, error) {
	var byGroup map[string]models.UsageRecord

	out := make(models.MonthlyUsage)
	for _, gid := range append(g.resolver.Groups(), models.MiscGroup) {
		record, err := g.cache.GetOrCompute(gid, month.Key(), func() (models.UsageRecord, error) {
			if byGroup == nil {
				var err error
				if byGroup, err = g.query(ctx, month); err != nil {
					return nil, err
				}
			}
			if r, ok := byGroup[gid]; ok {
				return r.Clone(), nil
			}
			return models.NewUsageRecord(models.ComputeKeys), nil
		})
		if err != nil {
			return nil, err
		}
		setRecord(out, gid, record)
	}
	return out, nil
}

// query fetches and sums the month's jobs by owning group.
func (g *JobAccounting) query(ctx context.Context, month models.Month) (map[string]models.UsageRecord, error) {
	output, err := g.client.Jobs(ctx, month, g.layout)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string]models.UsageRecord)
	jobs := parse.ParseJobs(output, g.layout)
	for _, job := range jobs {
		if job.Group == "" {
			logger.Debug("dropping job without group", "job", job.ID, "user", job.User)
			continue
		}
		gid := g.resolver.ResolveOwner(job.Group)
		acc, ok := byGroup[gid]
		if !ok {
			acc = models.NewUsageRecord(models.ComputeKeys)
			byGroup[gid] = acc
		}
		for key, v := range job.Record() {
			acc[key] += v
		}
	}

	logger.Debug("summed job usage", "month", month.Key(), "jobs", len(jobs), "groups", len(byGroup))
	return byGroup, nil
}
