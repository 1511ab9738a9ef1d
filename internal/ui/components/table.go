package components

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

// UsageRow is one group's monthly series.
type UsageRow struct {
	Label      string
	Department string
	Series     []float64
}

// Total sums the series.
func (r UsageRow) Total() float64 {
	var sum float64
	for _, v := range r.Series {
		sum += v
	}
	return sum
}

// RenderUsageTable lists groups by window total, largest first, with a
// sparkline of the monthly series, the newest month and the total. Rows
// whose total is under 1 are left out; the Total row still counts them.
func RenderUsageTable(latestLabel string, rows []UsageRow) string {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b UsageRow) int {
		return cmp.Compare(b.Total(), a.Total())
	})

	var latestSum, totalSum float64
	data := make([][]string, 0, len(sorted)+1)
	for _, r := range sorted {
		latest := 0.0
		if len(r.Series) > 0 {
			latest = r.Series[len(r.Series)-1]
		}
		latestSum += latest
		totalSum += r.Total()
		if r.Total() < 1 {
			continue
		}
		data = append(data, []string{
			ansi.Truncate(r.Label, MaxLabelWidth, "…"),
			r.Department,
			RenderSparkline(r.Series),
			FormatValue(latest),
			FormatValue(r.Total()),
		})
	}
	data = append(data, []string{"Total", "", "", FormatValue(latestSum), FormatValue(totalSum)})

	return renderTable([]string{"Group", "Department", "Trend", latestLabel, "Total"}, data, true)
}

// StorageRow is one owner's storage per tier.
type StorageRow struct {
	Label      string
	Department string
	Values     []float64
}

// RenderStorageTable lists owners with at least one tier above 1 GB.
func RenderStorageTable(tiers []string, rows []StorageRow) string {
	data := make([][]string, 0, len(rows)+1)
	sums := make([]float64, len(tiers))
	var grand float64
	for _, r := range rows {
		shown := false
		var total float64
		cells := []string{ansi.Truncate(r.Label, MaxLabelWidth, "…"), r.Department}
		for i := range tiers {
			v := 0.0
			if i < len(r.Values) {
				v = r.Values[i]
			}
			sums[i] += v
			total += v
			if v > 1 {
				shown = true
			}
			cells = append(cells, FormatValue(v))
		}
		grand += total
		if !shown {
			continue
		}
		data = append(data, append(cells, FormatValue(total)))
	}

	totals := []string{"Total", ""}
	for _, s := range sums {
		totals = append(totals, FormatValue(s))
	}
	data = append(data, append(totals, FormatValue(grand)))

	headers := append([]string{"Group", "Department"}, tiers...)
	return renderTable(append(headers, "Total"), data, true)
}

// RenderList draws a plain table, e.g. the roster.
func RenderList(headers []string, rows [][]string) string {
	return renderTable(headers, rows, false)
}

// renderTable draws headers and rows. With totals, the last row is styled
// as the totals row and numeric columns are right-aligned.
func renderTable(headers []string, rows [][]string, totals bool) string {
	last := -2
	if totals {
		last = len(rows) - 1
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch row {
			case table.HeaderRow:
				return styles.TableHeaderStyle
			case last:
				s = styles.TableTotalStyle
			default:
				s = styles.TableCellStyle
			}
			if totals && col >= 2 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
	return t.Render()
}
