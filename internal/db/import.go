package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// legacyValue accepts numbers and null; null becomes NaN.
type legacyValue float64

func (v *legacyValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = legacyValue(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = legacyValue(f)
	return nil
}

// ImportUsageJSON loads a legacy usage dump shaped as
// {gid: {month_key: {usage_key: value}}} and writes it in one transaction.
// Month keys are normalized to the first of the month.
func (db *DB) ImportUsageJSON(ctx context.Context, r io.Reader) (int, error) {
	var dump map[string]map[string]map[string]legacyValue
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return 0, fmt.Errorf("failed to decode usage dump: %w", err)
	}

	var entries []models.CacheEntry
	for gid, months := range dump {
		for monthKey, values := range months {
			month, err := models.ParseMonth(monthKey)
			if err != nil {
				return 0, fmt.Errorf("group %s: %w", gid, err)
			}
			record := make(models.UsageRecord, len(values))
			for k, v := range values {
				record[k] = float64(v)
			}
			entries = append(entries, models.CacheEntry{GID: gid, MonthKey: month.Key(), Record: record})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].GID != entries[j].GID {
			return entries[i].GID < entries[j].GID
		}
		return entries[i].MonthKey < entries[j].MonthKey
	})

	if err := db.SaveUsage(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
