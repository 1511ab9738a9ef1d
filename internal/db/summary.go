package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 +0000 UTC",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthSummary describes the cached data held for one month.
type MonthSummary struct {
	MonthKey     string
	Groups       int
	InvalidRows  int
	LastUpdated  time.Time
	CPUHourTotal float64
}

// CachedMonths summarizes the cache per month, newest first.
func (db *DB) CachedMonths(ctx context.Context) ([]MonthSummary, error) {
	query := `
		SELECT
			month_key,
			COUNT(DISTINCT gid) as group_count,
			SUM(CASE WHEN value IS NULL THEN 1 ELSE 0 END) as invalid_rows,
			MAX(updated_at) as last_updated,
			COALESCE(SUM(CASE WHEN usage_key = 'cpuUsage' THEN value END), 0) as cpu_total
		FROM usage_cache
		GROUP BY month_key
		ORDER BY month_key DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached months: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []MonthSummary
	for rows.Next() {
		var s MonthSummary
		var updated sql.NullString
		if err := rows.Scan(&s.MonthKey, &s.Groups, &s.InvalidRows, &updated, &s.CPUHourTotal); err != nil {
			return nil, fmt.Errorf("failed to scan cached month: %w", err)
		}
		if updated.Valid {
			if t, ok := parseTimeString(updated.String); ok {
				s.LastUpdated = t
			}
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
