package components

import (
	"fmt"
	"strings"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

// Directory supplies display names and departments for group ids.
type Directory interface {
	Label(gid string) string
	Department(gid string) string
}

// Bar chart cutoffs.
const (
	GroupCutoff   = 10
	StorageCutoff = 7
)

const chartHeight = 10

// StorageTiers pairs storage usage keys with their display names.
var StorageTiers = []struct {
	Key  string
	Name string
}{
	{models.KeyDataStorage, "/data"},
	{models.KeyScratchStorage, "/scratch"},
	{models.KeyHomeStorage, "/home"},
}

// RenderSummary renders the terminal report: capacity bars for the newest
// month, trend charts, per-group and per-department bars and tables.
func RenderSummary(rep *report.Report, dir Directory, capacity models.Capacity, width int) string {
	months := rep.Months()
	first, last := months[0], months[len(months)-1]
	sums := rep.SumUsage()

	var sections []string
	sections = append(sections, styles.TitleStyle.Render(
		fmt.Sprintf("Cluster usage %s - %s", first.Label(), last.Label())))

	// Capacity
	bar := NewCapacityBar(width)
	lastOf := func(key string) float64 {
		s := sums[key]
		if len(s) == 0 {
			return 0
		}
		return s[len(s)-1]
	}
	capLines := []string{
		bar.View("CPU hours", lastOf(models.KeyCPUUsage), capacity.CPUHoursPerMonth(), width),
		bar.View("GPU hours", lastOf(models.KeyGPUUsage), capacity.GPUHoursPerMonth(), width),
		bar.View("Memory GB·hrs", lastOf(models.KeyReqMem), capacity.MemGBHoursPerMonth(), width),
	}
	if storage := storageTotals(rep); len(storage) > 0 {
		var used float64
		for _, v := range storage {
			used += v
		}
		capLines = append(capLines, bar.View("Storage GB", used, capacity.StorageGB, width))
	}
	sections = append(sections, section(fmt.Sprintf("Capacity in %s", last.Label()), strings.Join(capLines, "\n")))

	if util := utilizationLines(rep, bar, width); util != "" {
		sections = append(sections, section("Cluster utilization", util))
	}

	// Trends
	chartWidth := max(width-15, 20)
	sections = append(sections,
		section("CPU usage - all users", RenderTrendChart(sums[models.KeyCPUUsage], capacity.CPUHoursPerMonth(), chartWidth, chartHeight, "CPU hours")),
		section("GPU usage - all users", RenderTrendChart(sums[models.KeyGPUUsage], capacity.GPUHoursPerMonth(), chartWidth, chartHeight, "GPU hours")),
		section("Memory usage - all users", RenderMemoryChart(sums[models.KeyReqMem], sums[models.KeyAllocMem], capacity.MemGBHoursPerMonth(), chartWidth, chartHeight, "GB·hours")),
	)

	// Per group and department
	cpuTotals := rep.Totals(models.KeyCPUUsage)
	sections = append(sections,
		section("CPU time used", RenderBarChart(RankBars(cpuTotals, dir.Label, 0, GroupCutoff), width)),
		section("GPU time used", RenderBarChart(RankBars(rep.Totals(models.KeyGPUUsage), dir.Label, 0, GroupCutoff), width)),
		section("MEM requested", RenderBarChart(RankBars(rep.Totals(models.KeyReqMem), dir.Label, 0, GroupCutoff), width)),
		section("CPU usage by department", RenderBarChart(RankBars(report.ByDepartment(cpuTotals, dir.Department), nil, 0, 0), width)),
	)

	if storage := storageTotals(rep); len(storage) > 0 {
		sections = append(sections, section("Storage",
			RenderBarChart(StorageShare(storage, dir.Label, StorageCutoff, capacity.StorageGB), width)))
	}

	sections = append(sections, section("CPU hours by group", RenderUsageTable(last.Label(), usageRows(rep, dir, models.KeyCPUUsage))))
	if tiers, rows := StorageRows(rep, dir); len(tiers) > 0 {
		sections = append(sections, section("Storage (GB)", RenderStorageTable(tiers, rows)))
	}

	return strings.Join(sections, "\n\n")
}

func section(title, body string) string {
	return styles.SubTitleStyle.Render(title) + "\n" + body
}

func usageRows(rep *report.Report, dir Directory, key string) []UsageRow {
	byGroup := rep.GroupUsage(key)[key]
	rows := make([]UsageRow, 0, len(byGroup))
	for _, gid := range rep.Groups() {
		rows = append(rows, UsageRow{Label: dir.Label(gid), Department: dir.Department(gid), Series: byGroup[gid]})
	}
	return rows
}

// storageTotals sums every storage tier per owner for the newest month.
func storageTotals(rep *report.Report) map[string]float64 {
	out := make(map[string]float64)
	for _, tier := range StorageTiers {
		if !rep.HasKey(tier.Key) {
			continue
		}
		values, err := rep.Query(tier.Key, -1)
		if err != nil {
			continue
		}
		for gid, v := range values {
			out[gid] += v
		}
	}
	return out
}

// StorageRows returns the tiers present in the report and one row per group
// for the newest month.
func StorageRows(rep *report.Report, dir Directory) ([]string, []StorageRow) {
	var tiers []string
	var columns []map[string]float64
	for _, tier := range StorageTiers {
		if !rep.HasKey(tier.Key) {
			continue
		}
		values, err := rep.Query(tier.Key, -1)
		if err != nil {
			continue
		}
		tiers = append(tiers, tier.Name)
		columns = append(columns, values)
	}
	if len(tiers) == 0 {
		return nil, nil
	}

	rows := make([]StorageRow, 0, len(rep.Groups()))
	for _, gid := range rep.Groups() {
		values := make([]float64, len(columns))
		for i, col := range columns {
			values[i] = col[gid]
		}
		rows = append(rows, StorageRow{Label: dir.Label(gid), Department: dir.Department(gid), Values: values})
	}
	return tiers, rows
}

var utilizationKeys = []struct {
	Label string
	Key   string
}{
	{"CPU allocated", models.KeyCPUAllocatedPct},
	{"CPU idle", models.KeyCPUIdlePct},
	{"CPU down", models.KeyCPUDownPct},
	{"GPU allocated", models.KeyGPUAllocatedPct},
	{"GPU idle", models.KeyGPUIdlePct},
	{"GPU down", models.KeyGPUDownPct},
}

func utilizationLines(rep *report.Report, bar CapacityBar, width int) string {
	var lines []string
	for _, u := range utilizationKeys {
		if !rep.HasKey(u.Key) {
			continue
		}
		values, err := rep.Query(u.Key, -1)
		if err != nil {
			continue
		}
		lines = append(lines, bar.ViewPercent(u.Label, values[models.ClusterGroup], width))
	}
	return strings.Join(lines, "\n")
}
