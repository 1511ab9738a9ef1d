package usage

import (
	"context"
	"fmt"

	"github.com/j-veylop/hpc-usage-report/internal/backend"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/parse"
)

// Utilization reads cluster-wide CPU and GPU utilization percentages.
type Utilization struct {
	client *backend.Client
}

func NewUtilization(client *backend.Client) *Utilization {
	return &Utilization{client: client}
}

func (g *Utilization) Name() string { return "utilization" }

// Produce returns the percentage keys under models.ClusterGroup.
func (g *Utilization) Produce(ctx context.Context, month models.Month) (models.MonthlyUsage, error) {
	output, err := g.client.Utilization(ctx, month)
	if err != nil {
		return nil, err
	}
	util, err := parse.ParseUtilization(output, parse.UtilizationHeaderLines)
	if err != nil {
		return nil, fmt.Errorf("cluster utilization: %w", err)
	}
	return util.Usage(), nil
}
