// Package components renders report figures for the terminal.
package components

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

// MaxLabelWidth caps bar chart labels.
const MaxLabelWidth = 24

// OtherLabel names the remainder bar beyond a cutoff.
const OtherLabel = "Other"

// UnusedLabel names the free capacity bar.
const UnusedLabel = "Unused"

// RenderTrendChart plots a monthly series against a flat capacity line.
// A capacity of zero or less draws no capacity line.
func RenderTrendChart(series []float64, capacity float64, width, height int, caption string) string {
	if len(series) == 0 {
		return styles.HelpStyle.Render("No data available")
	}
	width, height = chartSize(width, height)

	data := [][]float64{series}
	colors := []asciigraph.AnsiColor{asciigraph.Blue}
	legends := []string{"used"}
	if capacity > 0 {
		data = append(data, flat(capacity, len(series)))
		colors = append(colors, asciigraph.Red)
		legends = append(legends, "capacity")
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

// RenderMemoryChart plots requested and allocated memory with the capacity line.
func RenderMemoryChart(requested, allocated []float64, capacity float64, width, height int, caption string) string {
	if len(requested) == 0 && len(allocated) == 0 {
		return styles.HelpStyle.Render("No data available")
	}
	width, height = chartSize(width, height)

	n := max(len(requested), len(allocated))
	req := make([]float64, n)
	alloc := make([]float64, n)
	copy(req, requested)
	copy(alloc, allocated)

	data := [][]float64{req, alloc}
	colors := []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Blue}
	legends := []string{"requested", "allocated"}
	if capacity > 0 {
		data = append(data, flat(capacity, n))
		colors = append(colors, asciigraph.Green)
		legends = append(legends, "capacity")
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

func chartSize(width, height int) (int, int) {
	return max(width, 20), max(height, 3)
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// BarItem is one labelled bar.
type BarItem struct {
	Label string
	Value float64
}

// RankBars keeps values above threshold, sorted largest first. With a
// positive cutoff, everything past the first cutoff bars is summed into a
// single Other bar.
func RankBars(values map[string]float64, label func(string) string, threshold float64, cutoff int) []BarItem {
	items := make([]BarItem, 0, len(values))
	for id, v := range values {
		if v <= threshold {
			continue
		}
		name := id
		if label != nil {
			name = label(id)
		}
		items = append(items, BarItem{Label: name, Value: v})
	}
	slices.SortFunc(items, func(a, b BarItem) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})

	if cutoff <= 0 || len(items) <= cutoff {
		return items
	}
	var rest float64
	for _, it := range items[cutoff:] {
		rest += it.Value
	}
	return append(items[:cutoff:cutoff], BarItem{Label: OtherLabel, Value: rest})
}

// StorageShare ranks storage by owner and appends an Unused bar for the
// capacity left over.
func StorageShare(values map[string]float64, label func(string) string, cutoff int, capacity float64) []BarItem {
	items := RankBars(values, label, 0, cutoff)
	var used float64
	for _, it := range items {
		used += it.Value
	}
	if capacity > used {
		items = append(items, BarItem{Label: UnusedLabel, Value: capacity - used})
	}
	return items
}

// RenderBarChart creates a horizontal bar chart. Labels wider than
// MaxLabelWidth are truncated.
func RenderBarChart(items []BarItem, width int) string {
	if len(items) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	maxVal := 0.0
	labelWidth := 0
	labels := make([]string, len(items))
	for i, it := range items {
		maxVal = max(maxVal, it.Value)
		labels[i] = ansi.Truncate(it.Label, MaxLabelWidth, "…")
		labelWidth = max(labelWidth, ansi.StringWidth(labels[i]))
	}
	if maxVal == 0 {
		maxVal = 1
	}

	barWidth := max(width-labelWidth-12, 10)

	var total float64
	for _, it := range items {
		total += it.Value
	}

	barStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	otherStyle := lipgloss.NewStyle().Foreground(styles.Subtle)

	lines := make([]string, 0, len(items))
	for i, it := range items {
		pad := strings.Repeat(" ", labelWidth-ansi.StringWidth(labels[i]))
		barLen := max(int(it.Value/maxVal*float64(barWidth)), 0)

		style := barStyle
		if it.Label == OtherLabel || it.Label == UnusedLabel {
			style = otherStyle
		}
		bar := style.Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%s%s │%s %s", pad, labels[i], bar, FormatValue(it.Value)))
	}
	return strings.Join(lines, "\n")
}

// FormatValue abbreviates large values, e.g. 12500 as "12.5k".
func FormatValue(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e4:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline, one character per value.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / maxVal * float64(len(sparkChars)-1))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
