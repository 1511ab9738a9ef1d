package export

import (
	"fmt"
	"path/filepath"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
)

// Directory supplies display names and departments for group ids.
type Directory interface {
	Label(gid string) string
	Department(gid string) string
}

// UsageSheets maps sheet names to the usage key each one tabulates, in
// workbook order.
var UsageSheets = []struct {
	Name string
	Key  string
}{
	{"CPU Usage", models.KeyCPUUsage},
	{"GPU Usage", models.KeyGPUUsage},
	{"Requested MEM", models.KeyReqMem},
	{"Allocated MEM", models.KeyAllocMem},
}

// StorageColumns maps storage tiers to their column headers.
var StorageColumns = []struct {
	Header string
	Key    string
}{
	{"/data/ storage (GB)", models.KeyDataStorage},
	{"/scratch/ storage (GB)", models.KeyScratchStorage},
	{"/home/ storage (GB)", models.KeyHomeStorage},
}

// StorageSheet is the name of the storage sheet.
const StorageSheet = "Storage"

// Header rows of the usage sheets.
const (
	yearRow   = 4
	monthRow  = 5
	firstData = 6
)

// UsageFileName returns the usage workbook name for the report's newest month.
func UsageFileName(rep *report.Report) string {
	months := rep.Months()
	return fmt.Sprintf("ClusterUsage%s.xlsx", months[len(months)-1].Label())
}

// WriteUsage writes the cluster usage workbook into outDir and returns its path.
func WriteUsage(rep *report.Report, dir Directory, outDir string) (string, error) {
	w, err := newWorkbook()
	if err != nil {
		return "", err
	}

	groupUsage := rep.GroupUsage()
	for _, us := range UsageSheets {
		s, err := w.sheet(us.Name)
		if err != nil {
			_ = w.f.Close()
			return "", err
		}
		writeUsageSheet(s, rep, dir, groupUsage[us.Key])
		if s.err != nil {
			_ = w.f.Close()
			return "", fmt.Errorf("failed to write sheet %q: %w", us.Name, s.err)
		}
	}

	s, err := w.sheet(StorageSheet)
	if err != nil {
		_ = w.f.Close()
		return "", err
	}
	if err := writeStorageSheet(s, rep, dir); err != nil {
		_ = w.f.Close()
		return "", err
	}

	path := filepath.Join(outDir, UsageFileName(rep))
	if err := w.save(path); err != nil {
		return "", err
	}
	logger.Info("wrote usage workbook", "path", path)
	return path, nil
}

// writeUsageSheet lays out one group per row and one month per column.
// Groups whose window total is under 1 are skipped and monthly values of 1
// or less are left blank.
func writeUsageSheet(s *sheet, rep *report.Report, dir Directory, byGroup map[string][]float64) {
	months := rep.Months()

	s.cell(1, yearRow, "Group", true)
	s.cell(2, yearRow, "Department", true)
	s.width(1, 20)
	s.width(2, 20)

	lastYear := ""
	for n, month := range months {
		col := 3 + n
		s.width(col, 15)
		label := month.Label()
		s.cell(col, monthRow, label[:3], true)
		if year := label[3:]; year != lastYear {
			s.cell(col, yearRow, year, true)
			lastYear = year
		}
	}
	totalCol := 3 + len(months)
	s.cell(totalCol, monthRow, "1 Yr Total", true)
	s.width(totalCol, 20)

	row := firstData
	monthly := make([]float64, len(months))
	for _, gid := range rep.Groups() {
		series := byGroup[gid]
		var total float64
		for i, v := range series {
			total += v
			monthly[i] += v
		}
		if total < 1 {
			continue
		}

		s.cell(1, row, dir.Label(gid), false)
		s.cell(2, row, dir.Department(gid), false)
		for i, v := range series {
			if v > 1 {
				s.cell(3+i, row, round1(v), false)
			}
		}
		s.cell(totalCol, row, round1(total), true)
		row++
	}

	s.cell(1, row, "Total", true)
	var grand float64
	for i, v := range monthly {
		grand += v
		s.cell(3+i, row, round1(v), true)
	}
	s.cell(totalCol, row, round1(grand), true)
}

// writeStorageSheet tabulates the newest month's storage per tier. Only
// tiers present in the report get a column.
func writeStorageSheet(s *sheet, rep *report.Report, dir Directory) error {
	type column struct {
		header string
		values map[string]float64
	}
	var columns []column
	for _, sc := range StorageColumns {
		if !rep.HasKey(sc.Key) {
			continue
		}
		values, err := rep.Query(sc.Key, -1)
		if err != nil {
			return err
		}
		columns = append(columns, column{header: sc.Header, values: values})
	}

	s.cell(1, yearRow, "Group", true)
	s.cell(2, yearRow, "Department", true)
	for n, c := range columns {
		s.cell(3+n, yearRow, c.header, true)
	}
	totalCol := 3 + len(columns)
	s.cell(totalCol, yearRow, "Total", true)
	for col := 1; col <= totalCol; col++ {
		s.width(col, 30)
	}

	row := monthRow
	for _, gid := range rep.Groups() {
		var total float64
		shown := false
		for _, c := range columns {
			total += c.values[gid]
			if c.values[gid] > 1 {
				shown = true
			}
		}
		if !shown {
			continue
		}

		s.cell(1, row, dir.Label(gid), false)
		s.cell(2, row, dir.Department(gid), false)
		for n, c := range columns {
			if v := c.values[gid]; v > 1 {
				s.cell(3+n, row, round1(v), false)
			}
		}
		s.cell(totalCol, row, round1(total), true)
		row++
	}

	if s.err != nil {
		return fmt.Errorf("failed to write sheet %q: %w", StorageSheet, s.err)
	}
	return nil
}
