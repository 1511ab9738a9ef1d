// Package usage produces the per-month usage maps that make up a report.
// Each generator reads one accounting source and returns a partial
// models.MonthlyUsage that the caller merges.
package usage

import (
	"context"
	"fmt"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// Generator produces the usage keys of one accounting source for a month.
type Generator interface {
	Name() string
	Produce(ctx context.Context, month models.Month) (models.MonthlyUsage, error)
}

// Produce runs every generator for month and merges their output. Two
// generators emitting the same key is an error.
func Produce(ctx context.Context, month models.Month, generators ...Generator) (models.MonthlyUsage, error) {
	merged := make(models.MonthlyUsage)
	for _, g := range generators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		partial, err := g.Produce(ctx, month)
		if err != nil {
			return nil, fmt.Errorf("%s usage for %s: %w", g.Name(), month, err)
		}
		if err := merged.Merge(partial); err != nil {
			return nil, fmt.Errorf("%s usage for %s: %w", g.Name(), month, err)
		}
	}
	return merged, nil
}

// setRecord copies the compute keys of record into usage under gid.
func setRecord(usage models.MonthlyUsage, gid string, record models.UsageRecord) {
	for _, key := range models.ComputeKeys {
		usage.Set(key, gid, record[key])
	}
}
