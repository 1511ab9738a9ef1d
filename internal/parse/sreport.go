package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// AccountSummary is the usage reported by sreport for one account, in the
// units requested with "-t Minutes".
type AccountSummary struct {
	CPUMinutes   float64
	MemMBMinutes float64
	GPUMinutes   float64
}

// CPUHours converts CPU minutes to hours.
func (a AccountSummary) CPUHours() float64 { return a.CPUMinutes / 60 }

// MemGBHours converts MB minutes to GB hours.
func (a AccountSummary) MemGBHours() float64 { return a.MemMBMinutes / 60 / 1024 }

// GPUHours converts GPU minutes to hours.
func (a AccountSummary) GPUHours() float64 { return a.GPUMinutes / 60 }

// Account summary columns printed by
// "sreport -P -n cluster AccountUtilizationByUser -T cpu,mem,gres/gpu".
const (
	summaryLoginColumn = 2
	summaryTRESColumn  = 4
	summaryUsedColumn  = 5
	summaryColumns     = 6

	SummaryCPU = "cpu"
	SummaryMem = "mem"
	SummaryGPU = "gres/gpu"
)

// ParseAccountSummary reads the pipe-delimited account summary. Only
// account rows, those with an empty Login, are counted; per-user rows repeat
// the same usage split by user. The gres/gpu row may be absent.
func ParseAccountSummary(output string) (AccountSummary, error) {
	var summary AccountSummary
	found := map[string]bool{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cols := strings.Split(line, "|")
		if len(cols) < summaryColumns {
			return AccountSummary{}, fmt.Errorf("%w: summary line %q", ErrFormat, line)
		}
		if strings.TrimSpace(cols[summaryLoginColumn]) != "" {
			continue
		}

		tres := strings.TrimSpace(cols[summaryTRESColumn])
		if tres != SummaryCPU && tres != SummaryMem && tres != SummaryGPU {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[summaryUsedColumn]), 64)
		if err != nil {
			return AccountSummary{}, fmt.Errorf("%w: summary %s value %q", ErrFormat, tres, cols[summaryUsedColumn])
		}

		switch tres {
		case SummaryCPU:
			summary.CPUMinutes += v
		case SummaryMem:
			summary.MemMBMinutes += v
		case SummaryGPU:
			summary.GPUMinutes += v
		}
		found[tres] = true
	}

	for _, tres := range []string{SummaryCPU, SummaryMem} {
		if !found[tres] {
			return AccountSummary{}, fmt.Errorf("%w: summary has no %s row", ErrFormat, tres)
		}
	}
	return summary, nil
}

// Utilization report labels and columns.
const (
	UtilizationCPU = "cpu"
	UtilizationGPU = "gres/gpu"

	// UtilizationHeaderLines is the banner printed by "sreport -P cluster Utilization".
	UtilizationHeaderLines = 5

	utilLabelColumn = 1
	utilFirstColumn = 2
	utilColumns     = 6
)

// ParseUtilization reads the pipe-delimited output of
// "sreport -P cluster Utilization -t Percent". Columns after the label are
// Allocated, Down, PLND Down, Idle, Planned and Reported.
func ParseUtilization(output string, headerLines int) (models.ClusterUtilization, error) {
	var util models.ClusterUtilization
	lines := strings.Split(output, "\n")
	if headerLines > len(lines) {
		headerLines = len(lines)
	}

	found := map[string]bool{}
	for _, line := range lines[headerLines:] {
		cols := strings.Split(strings.TrimSpace(line), "|")
		if len(cols) < utilFirstColumn+utilColumns {
			continue
		}
		label := strings.TrimSpace(cols[utilLabelColumn])
		if label != UtilizationCPU && label != UtilizationGPU {
			continue
		}

		var v [utilColumns]float64
		for i := range v {
			raw := strings.TrimSuffix(strings.TrimSpace(cols[utilFirstColumn+i]), "%")
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return util, fmt.Errorf("%w: utilization %s column %d %q", ErrFormat, label, i, raw)
			}
			v[i] = f
		}
		row := models.UtilizationRow{
			Allocated:   v[0],
			Down:        v[1],
			PlannedDown: v[2],
			Idle:        v[3],
			Planned:     v[4],
			Reported:    v[5],
		}
		if label == UtilizationCPU {
			util.CPU = row
		} else {
			util.GPU = row
		}
		found[label] = true
	}

	for _, label := range []string{UtilizationCPU, UtilizationGPU} {
		if !found[label] {
			return util, fmt.Errorf("%w: %s row not found in utilization report", ErrMissingMetric, label)
		}
	}
	return util, nil
}
