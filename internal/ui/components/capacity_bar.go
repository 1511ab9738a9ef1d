package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

const (
	gradientFrom = "#ff6b6b"
	gradientTo   = "#51cf66"
)

// CapacityBar renders the share of a capacity in use.
type CapacityBar struct {
	progress progress.Model
}

// NewCapacityBar creates a capacity bar with gradient colors.
func NewCapacityBar(width int) CapacityBar {
	p := progress.New(
		progress.WithScaledGradient(gradientFrom, gradientTo),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return CapacityBar{progress: p}
}

// Share returns used/capacity clamped to [0, 1]. A non-positive capacity
// yields 0.
func Share(used, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return min(max(used/capacity, 0), 1)
}

// View renders the bar with its label, the used amount and the percentage.
func (c CapacityBar) View(label string, used, capacity float64, width int) string {
	c.progress.Width = max(width-40, 10)

	share := Share(used, capacity)
	bar := c.progress.ViewAs(share)

	percent := share * 100
	percentStr := styles.GetUtilizationStyle(percent).
		Width(7).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.1f%%", percent))

	usedStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(12).
		Align(lipgloss.Right).
		Render(FormatValue(used))

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		styles.ProgressLabelStyle.Render(label),
		bar,
		" ",
		percentStr,
		usedStr,
	)
}

// ViewPercent renders a bar for a value already expressed in percent, as
// reported by cluster utilization.
func (c CapacityBar) ViewPercent(label string, percent float64, width int) string {
	c.progress.Width = max(width-30, 10)
	share := min(max(percent/100, 0), 1)

	percentStr := styles.GetUtilizationStyle(percent).
		Width(7).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.1f%%", percent))

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		styles.ProgressLabelStyle.Render(label),
		c.progress.ViewAs(share),
		" ",
		percentStr,
	)
}

// RenderGradientBar renders just the bar characters with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(gradientFrom, gradientTo, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

// SimpleCapacityBar renders a compact "label [bar] pct" line.
func SimpleCapacityBar(label string, used, capacity float64, width int) string {
	percent := Share(used, capacity) * 100
	barWidth := max(width-len(label)-12, 5)

	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
	percentStr := styles.GetUtilizationStyle(percent).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, RenderGradientBar(percent, barWidth), percentStr)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
