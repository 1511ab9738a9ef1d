package db

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

func TestSaveAndLoadUsage(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	entries := []models.CacheEntry{
		{GID: "smith", MonthKey: "2024-01-01", Record: models.UsageRecord{
			models.KeyCPUUsage: 10, models.KeyGPUUsage: 2, models.KeyReqMem: 30, models.KeyAllocMem: 4,
		}},
		{GID: "misc", MonthKey: "2024-01-01", Record: models.UsageRecord{
			models.KeyCPUUsage: 1, models.KeyGPUUsage: 0, models.KeyReqMem: 0, models.KeyAllocMem: 0,
		}},
	}
	if err := db.SaveUsage(ctx, entries); err != nil {
		t.Fatalf("SaveUsage() failed: %v", err)
	}

	usage, err := db.LoadUsage(ctx)
	if err != nil {
		t.Fatalf("LoadUsage() failed: %v", err)
	}

	got := usage["smith"]["2024-01-01"]
	if got[models.KeyCPUUsage] != 10 || got[models.KeyReqMem] != 30 {
		t.Errorf("LoadUsage() smith = %v", got)
	}
	if !got.Valid(models.ComputeKeys) {
		t.Error("round-tripped record should be valid")
	}
	if len(usage["misc"]) != 1 {
		t.Errorf("LoadUsage() misc months = %d, want 1", len(usage["misc"]))
	}
}

func TestSaveUsage_ReplacesRecord(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	first := models.CacheEntry{GID: "smith", MonthKey: "2024-01-01", Record: models.UsageRecord{
		models.KeyCPUUsage: 1, "legacyKey": 7,
	}}
	second := models.CacheEntry{GID: "smith", MonthKey: "2024-01-01", Record: models.UsageRecord{
		models.KeyCPUUsage: 2,
	}}
	if err := db.SaveUsage(ctx, []models.CacheEntry{first}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveUsage(ctx, []models.CacheEntry{second}); err != nil {
		t.Fatal(err)
	}

	usage, err := db.LoadUsage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	rec := usage["smith"]["2024-01-01"]
	if len(rec) != 1 || rec[models.KeyCPUUsage] != 2 {
		t.Errorf("record not replaced: %v", rec)
	}
}

func TestSaveUsage_NaNBecomesNull(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	entry := models.CacheEntry{GID: "smith", MonthKey: "2024-02-01", Record: models.UsageRecord{
		models.KeyCPUUsage: math.NaN(), models.KeyGPUUsage: 0, models.KeyReqMem: 0, models.KeyAllocMem: 0,
	}}
	if err := db.SaveUsage(ctx, []models.CacheEntry{entry}); err != nil {
		t.Fatalf("SaveUsage() failed: %v", err)
	}

	var nulls int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_cache WHERE value IS NULL").Scan(&nulls)
	if err != nil {
		t.Fatal(err)
	}
	if nulls != 1 {
		t.Errorf("NULL rows = %d, want 1", nulls)
	}

	usage, err := db.LoadUsage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	rec := usage["smith"]["2024-02-01"]
	if !math.IsNaN(rec[models.KeyCPUUsage]) {
		t.Errorf("NULL should load as NaN, got %v", rec[models.KeyCPUUsage])
	}
	if rec.Valid(models.ComputeKeys) {
		t.Error("record with NULL value should be invalid")
	}
}

func TestSaveUsage_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.SaveUsage(context.Background(), nil); err != nil {
		t.Errorf("SaveUsage(nil) failed: %v", err)
	}
}

func TestSaveUsage_CanceledContextWritesNothing(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entry := models.CacheEntry{GID: "smith", MonthKey: "2024-01-01", Record: models.UsageRecord{models.KeyCPUUsage: 1}}
	if err := db.SaveUsage(ctx, []models.CacheEntry{entry}); err == nil {
		t.Fatal("SaveUsage() expected error with canceled context")
	}

	usage, err := db.LoadUsage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(usage) != 0 {
		t.Errorf("canceled save left rows behind: %v", usage)
	}
}

func TestDeleteMonth(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_ = db.SaveUsage(ctx, []models.CacheEntry{
		{GID: "a", MonthKey: "2024-01-01", Record: models.UsageRecord{models.KeyCPUUsage: 1, models.KeyGPUUsage: 1}},
		{GID: "a", MonthKey: "2024-02-01", Record: models.UsageRecord{models.KeyCPUUsage: 1}},
	})

	n, err := db.DeleteMonth(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("DeleteMonth() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteMonth() removed %d rows, want 2", n)
	}

	usage, _ := db.LoadUsage(ctx)
	if _, ok := usage["a"]["2024-01-01"]; ok {
		t.Error("month still cached after DeleteMonth()")
	}
	if _, ok := usage["a"]["2024-02-01"]; !ok {
		t.Error("DeleteMonth() removed the wrong month")
	}
}

func TestCachedMonths(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_ = db.SaveUsage(ctx, []models.CacheEntry{
		{GID: "a", MonthKey: "2024-01-01", Record: models.UsageRecord{models.KeyCPUUsage: 5, models.KeyGPUUsage: math.NaN()}},
		{GID: "b", MonthKey: "2024-01-01", Record: models.UsageRecord{models.KeyCPUUsage: 7}},
		{GID: "a", MonthKey: "2024-02-01", Record: models.UsageRecord{models.KeyCPUUsage: 1}},
	})

	months, err := db.CachedMonths(ctx)
	if err != nil {
		t.Fatalf("CachedMonths() failed: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("CachedMonths() returned %d months, want 2", len(months))
	}
	if months[0].MonthKey != "2024-02-01" {
		t.Errorf("months not sorted newest first: %v", months[0].MonthKey)
	}
	jan := months[1]
	if jan.Groups != 2 || jan.InvalidRows != 1 || jan.CPUHourTotal != 12 {
		t.Errorf("January summary = %+v", jan)
	}
	if jan.LastUpdated.IsZero() {
		t.Error("LastUpdated not parsed")
	}
}

func TestImportUsageJSON(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	dump := `{
		"smith": {
			"2023-05-17": {"cpuUsage": 12.5, "gpuUsage": 0, "reqMem": 3, "allocMem": 1},
			"2023-06-01": {"cpuUsage": null, "gpuUsage": 0, "reqMem": 3, "allocMem": 1}
		}
	}`

	n, err := db.ImportUsageJSON(ctx, strings.NewReader(dump))
	if err != nil {
		t.Fatalf("ImportUsageJSON() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("ImportUsageJSON() imported %d entries, want 2", n)
	}

	usage, err := db.LoadUsage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if usage["smith"]["2023-05-01"][models.KeyCPUUsage] != 12.5 {
		t.Errorf("imported record = %v", usage["smith"]["2023-05-01"])
	}
	if usage["smith"]["2023-06-01"].Valid(models.ComputeKeys) {
		t.Error("null value should import as invalid record")
	}

	if _, err := db.ImportUsageJSON(ctx, strings.NewReader(`{"x": {"bad": {}}}`)); err == nil {
		t.Error("ImportUsageJSON() expected error for bad month key")
	}
}
