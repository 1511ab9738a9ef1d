package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// LoadUsage reads every cached record, keyed by gid then month key.
// NULL values load as NaN so the cache treats them as invalid.
func (db *DB) LoadUsage(ctx context.Context) (map[string]map[string]models.UsageRecord, error) {
	query := `SELECT gid, month_key, usage_key, value FROM usage_cache`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage cache: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	usage := make(map[string]map[string]models.UsageRecord)
	for rows.Next() {
		var gid, monthKey, usageKey string
		var value sql.NullFloat64
		if err := rows.Scan(&gid, &monthKey, &usageKey, &value); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}

		v := math.NaN()
		if value.Valid {
			v = value.Float64
		}

		if usage[gid] == nil {
			usage[gid] = make(map[string]models.UsageRecord)
		}
		if usage[gid][monthKey] == nil {
			usage[gid][monthKey] = make(models.UsageRecord)
		}
		usage[gid][monthKey][usageKey] = v
	}

	return usage, rows.Err()
}

// SaveUsage replaces the stored records for each entry's (gid, month) in a
// single transaction. Either every entry is written or none is.
func (db *DB) SaveUsage(ctx context.Context, entries []models.CacheEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("failed to roll back usage cache write", "error", rbErr)
			}
		}
	}()

	deleteStmt, err := tx.PrepareContext(ctx, `DELETE FROM usage_cache WHERE gid = ? AND month_key = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer func() { _ = deleteStmt.Close() }()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO usage_cache (gid, month_key, usage_key, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = insertStmt.Close() }()

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	for _, entry := range entries {
		if _, err = deleteStmt.ExecContext(ctx, entry.GID, entry.MonthKey); err != nil {
			return fmt.Errorf("failed to clear usage for %s %s: %w", entry.GID, entry.MonthKey, err)
		}
		for key, value := range entry.Record {
			if _, err = insertStmt.ExecContext(ctx, entry.GID, entry.MonthKey, key, nullFloat(value), now); err != nil {
				return fmt.Errorf("failed to insert usage for %s %s: %w", entry.GID, entry.MonthKey, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage cache: %w", err)
	}
	return nil
}

// DeleteMonth drops every cached record for a month so the next run recomputes it.
func (db *DB) DeleteMonth(ctx context.Context, monthKey string) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM usage_cache WHERE month_key = ?`, monthKey)
	if err != nil {
		return 0, fmt.Errorf("failed to delete month %s: %w", monthKey, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return n, nil
}

// nullFloat maps NaN to NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
