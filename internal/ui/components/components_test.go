package components

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
)

func TestRankBars(t *testing.T) {
	values := map[string]float64{"a": 5, "b": 3, "c": 1, "d": 0.5, "e": 1}

	tests := []struct {
		name      string
		threshold float64
		cutoff    int
		want      []BarItem
	}{
		{
			name:      "no cutoff",
			threshold: 0.6,
			want:      []BarItem{{"a", 5}, {"b", 3}, {"c", 1}, {"e", 1}},
		},
		{
			name:      "cutoff folds remainder",
			threshold: 0.6,
			cutoff:    2,
			want:      []BarItem{{"a", 5}, {"b", 3}, {OtherLabel, 2}},
		},
		{
			name:   "cutoff larger than items",
			cutoff: 10,
			want:   []BarItem{{"a", 5}, {"b", 3}, {"c", 1}, {"e", 1}, {"d", 0.5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankBars(values, nil, tt.threshold, tt.cutoff)
			if len(got) != len(tt.want) {
				t.Fatalf("RankBars() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRankBars_Label(t *testing.T) {
	got := RankBars(map[string]float64{"smith": 2}, strings.ToUpper, 0, 0)
	if len(got) != 1 || got[0].Label != "SMITH" {
		t.Errorf("RankBars() = %v, want label SMITH", got)
	}
}

func TestStorageShare(t *testing.T) {
	got := StorageShare(map[string]float64{"a": 100, "b": 50}, nil, 1, 200)
	want := []BarItem{{"a", 100}, {OtherLabel, 50}, {UnusedLabel, 50}}
	if len(got) != len(want) {
		t.Fatalf("StorageShare() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("item %d = %v, want %v", i, got[i], want[i])
		}
	}

	full := StorageShare(map[string]float64{"a": 300}, nil, 0, 200)
	if len(full) != 1 {
		t.Errorf("over-capacity storage should have no Unused bar, got %v", full)
	}
}

func TestRenderBarChart(t *testing.T) {
	long := strings.Repeat("x", 40)
	s := RenderBarChart([]BarItem{{"short", 10}, {long, 20}}, 60)

	if !strings.Contains(s, "short") {
		t.Error("missing label")
	}
	if strings.Contains(s, long) {
		t.Error("long label should be truncated")
	}
	if !strings.Contains(s, "…") {
		t.Error("truncated label should end with an ellipsis")
	}
	if got := len(strings.Split(s, "\n")); got != 2 {
		t.Errorf("lines = %d, want 2", got)
	}

	if s := RenderBarChart(nil, 60); !strings.Contains(s, "No data") {
		t.Errorf("empty chart = %q", s)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{9999, "9999.0"},
		{12500, "12.5k"},
		{2.5e6, "2.5M"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 7}); got != "▁█" {
		t.Errorf("RenderSparkline() = %q, want %q", got, "▁█")
	}
	if got := utf8.RuneCountInString(RenderSparkline(make([]float64, 13))); got != 13 {
		t.Errorf("sparkline width = %d, want 13", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("empty sparkline should be empty")
	}
}

func TestRenderTrendChart(t *testing.T) {
	s := RenderTrendChart([]float64{1, 2, 3, 4}, 5, 30, 5, "CPU hours")
	if !strings.Contains(s, "capacity") {
		t.Error("trend chart should carry a capacity legend")
	}
	if !strings.Contains(s, "CPU hours") {
		t.Error("trend chart should carry its caption")
	}

	if s := RenderTrendChart(nil, 5, 30, 5, ""); !strings.Contains(s, "No data") {
		t.Errorf("empty chart = %q", s)
	}
}

func TestRenderMemoryChart(t *testing.T) {
	s := RenderMemoryChart([]float64{3, 2, 1}, []float64{1, 1}, 0, 20, 5, "GB")
	if !strings.Contains(s, "requested") || !strings.Contains(s, "allocated") {
		t.Error("memory chart should label both series")
	}
	if strings.Contains(s, "capacity") {
		t.Error("zero capacity should not be drawn")
	}
}

func TestShare(t *testing.T) {
	tests := []struct {
		used, capacity, want float64
	}{
		{50, 100, 0.5},
		{200, 100, 1},
		{-1, 100, 0},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := Share(tt.used, tt.capacity); got != tt.want {
			t.Errorf("Share(%v, %v) = %v, want %v", tt.used, tt.capacity, got, tt.want)
		}
	}
}

func TestCapacityBar_View(t *testing.T) {
	bar := NewCapacityBar(30)
	s := bar.View("CPU hours", 50, 100, 80)
	if !strings.Contains(s, "CPU hours") || !strings.Contains(s, "50.0%") {
		t.Errorf("View() = %q", s)
	}

	s = bar.ViewPercent("GPU idle", 12.5, 80)
	if !strings.Contains(s, "12.5%") {
		t.Errorf("ViewPercent() = %q", s)
	}
}

func TestSimpleCapacityBar(t *testing.T) {
	s := SimpleCapacityBar("data", 25, 100, 40)
	if !strings.Contains(s, "25%") {
		t.Errorf("SimpleCapacityBar() = %q", s)
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("interpolateColor(0) = %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("interpolateColor(1) = %s", got)
	}
	if got := hexToRGB("zz"); got != [3]int{} {
		t.Errorf("hexToRGB(invalid) = %v", got)
	}
}

func TestRenderUsageTable(t *testing.T) {
	s := RenderUsageTable("May2024", []UsageRow{
		{Label: "alice", Department: "Chemistry", Series: []float64{1, 2}},
		{Label: "bob", Department: "Physics", Series: []float64{0.2, 0.3}},
	})
	if !strings.Contains(s, "alice") || !strings.Contains(s, "May2024") {
		t.Errorf("table missing content:\n%s", s)
	}
	if strings.Contains(s, "bob") {
		t.Error("groups under 1 should be hidden")
	}
	if !strings.Contains(s, "3.5") {
		t.Error("total row should count hidden groups")
	}
}

func TestRenderStorageTable(t *testing.T) {
	s := RenderStorageTable([]string{"/data", "/scratch"}, []StorageRow{
		{Label: "alice", Values: []float64{3000, 10}},
		{Label: "bob", Values: []float64{0.5}},
	})
	if !strings.Contains(s, "alice") || !strings.Contains(s, "/scratch") {
		t.Errorf("table missing content:\n%s", s)
	}
	if strings.Contains(s, "bob") {
		t.Error("owners under 1 GB should be hidden")
	}
	if !strings.Contains(s, "3010.5") {
		t.Error("grand total should include hidden owners")
	}
}

type fakeDirectory map[string]string

func (d fakeDirectory) Label(gid string) string      { return "PI " + gid }
func (d fakeDirectory) Department(gid string) string { return d[gid] }

func TestRenderSummary(t *testing.T) {
	months := []models.Month{models.MonthOf(2024, time.April), models.MonthOf(2024, time.May)}
	usages := []models.MonthlyUsage{
		{models.KeyCPUUsage: {"alice": 100}, models.KeyReqMem: {"alice": 50}, models.KeyAllocMem: {"alice": 40}},
		{
			models.KeyCPUUsage:        {"alice": 200, "bob": 20},
			models.KeyReqMem:          {"alice": 60},
			models.KeyAllocMem:        {"alice": 30},
			models.KeyDataStorage:     {"alice": 500},
			models.KeyCPUAllocatedPct: {models.ClusterGroup: 87.5},
		},
	}
	rep, err := report.New(months, usages, []string{"alice", "bob"})
	if err != nil {
		t.Fatal(err)
	}

	capacity := models.CapacityOf([]models.NodeClass{{Count: 1, Cores: 4, GPUs: 1, MemoryGB: 16}}, 1000)
	s := RenderSummary(rep, fakeDirectory{"alice": "Chemistry"}, capacity, 100)

	for _, want := range []string{
		"Cluster usage Apr2024 - May2024",
		"Capacity in May2024",
		"Cluster utilization",
		"87.5%",
		"CPU usage by department",
		"Chemistry",
		"PI alice",
		"Storage (GB)",
		UnusedLabel,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "A", Color: lipgloss.Color("#ffffff")},
	}
	s := RenderLegend(items)
	if !strings.Contains(s, "A") {
		t.Error("RenderLegend missing label")
	}
}
