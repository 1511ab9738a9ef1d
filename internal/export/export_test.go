package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
)

type fakeDirectory map[string][2]string

func (d fakeDirectory) Label(gid string) string {
	if e, ok := d[gid]; ok {
		return e[0]
	}
	return gid
}

func (d fakeDirectory) Department(gid string) string {
	return d[gid][1]
}

var directory = fakeDirectory{
	"alice": {"Alice Smith", "Chemistry"},
	"bob":   {"Bob Jones", "Physics"},
}

func testReport(t *testing.T) *report.Report {
	t.Helper()
	months := []models.Month{models.MonthOf(2023, time.December), models.MonthOf(2024, time.January)}
	usages := []models.MonthlyUsage{
		{models.KeyCPUUsage: {"alice": 10, "bob": 0.5}},
		{
			models.KeyCPUUsage:     {"alice": 2.25, "bob": 0.25, models.MiscGroup: 0.25},
			models.KeyDataStorage: {"alice": 3000, "bob": 0.5},
		},
	}
	rep, err := report.New(months, usages, []string{"alice", "bob"})
	require.NoError(t, err)
	return rep
}

func cellValue(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func isBold(t *testing.T, f *excelize.File, sheet, ref string) bool {
	t.Helper()
	id, err := f.GetCellStyle(sheet, ref)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.Equal(t, fontFamily, style.Font.Family)
	return style.Font.Bold
}

func TestWriteUsage(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteUsage(testReport(t), directory, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ClusterUsageJan2024.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"CPU Usage", "GPU Usage", "Requested MEM", "Allocated MEM", "Storage"}, f.GetSheetList())

	const cpu = "CPU Usage"
	tests := []struct {
		ref  string
		want string
	}{
		{"A4", "Group"},
		{"B4", "Department"},
		{"C4", "2023"},
		{"D4", "2024"},
		{"C5", "Dec"},
		{"D5", "Jan"},
		{"E5", "1 Yr Total"},
		{"A6", "Alice Smith"},
		{"B6", "Chemistry"},
		{"C6", "10"},
		{"D6", "2.3"},
		{"E6", "12.3"},
		// bob and misc total under 1 and are skipped.
		{"A7", "Total"},
		{"C7", "10.5"},
		{"D7", "2.8"},
		{"E7", "13.3"},
		{"A8", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, cellValue(t, f, cpu, tt.ref))
		})
	}

	assert.True(t, isBold(t, f, cpu, "A7"))
	assert.True(t, isBold(t, f, cpu, "E6"))
	assert.False(t, isBold(t, f, cpu, "C6"))

	width, err := f.GetColWidth(cpu, "E")
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)
}

func TestWriteUsage_EmptyKey(t *testing.T) {
	path, err := WriteUsage(testReport(t), directory, t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Total", cellValue(t, f, "GPU Usage", "A6"))
	assert.Equal(t, "0", cellValue(t, f, "GPU Usage", "E6"))
}

func TestWriteUsage_Storage(t *testing.T) {
	path, err := WriteUsage(testReport(t), directory, t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "/data/ storage (GB)", cellValue(t, f, StorageSheet, "C4"))
	assert.Equal(t, "Total", cellValue(t, f, StorageSheet, "D4"))
	assert.Equal(t, "Alice Smith", cellValue(t, f, StorageSheet, "A5"))
	assert.Equal(t, "3000", cellValue(t, f, StorageSheet, "C5"))
	assert.Equal(t, "3000", cellValue(t, f, StorageSheet, "D5"))
	assert.Equal(t, "", cellValue(t, f, StorageSheet, "A6"))
}

func TestWriteUsage_BadDirectory(t *testing.T) {
	_, err := WriteUsage(testReport(t), directory, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWriteGroupList(t *testing.T) {
	groups := []models.Group{
		{GID: "alice", NGID: "1001", FirstName: "Alice", LastName: "Smith", Email: "alice@example.edu", Department: "Chemistry"},
		{GID: "bob", FirstName: "Bob", LastName: "Jones", Department: "Physics"},
	}
	path, err := WriteGroupList(groups, t.TempDir(), "Mar2024")
	require.NoError(t, err)
	assert.Equal(t, "PIList-Mar2024.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("PI info")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"gid", "ngid", "First name", "Last name", "Department", "Email"}, rows[0])
	assert.Equal(t, []string{"alice", "1001", "Alice", "Smith", "Chemistry", "alice@example.edu"}, rows[1])
	assert.Equal(t, "Physics", rows[2][4])
	assert.True(t, isBold(t, f, "PI info", "A1"))
}

func TestWriteUserList(t *testing.T) {
	users := []models.User{{UID: "asmith", GID: "alice", NUID: "n1", FirstName: "Ann", LastName: "Smith", Email: "ann@example.edu"}}
	path, err := WriteUserList(users, t.TempDir(), "Mar2024")
	require.NoError(t, err)
	assert.Equal(t, "UserList-Mar2024.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("User info")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"uid", "gid", "nuid", "First name", "Last name", "Email"}, rows[0])
	assert.Equal(t, []string{"asmith", "alice", "n1", "Ann", "Smith", "ann@example.edu"}, rows[1])
}

func TestRound1(t *testing.T) {
	assert.InDelta(t, 2.3, round1(2.25), 1e-9)
	assert.InDelta(t, 192.0, round1(192.04), 1e-9)
	assert.InDelta(t, 0.1, round1(0.05), 1e-9)
}
