// Package cache memoizes per-group, per-month usage records in memory and
// persists new records to a durable store in one bulk write.
package cache

import (
	"context"
	"fmt"
	"sort"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// Store is the durable backing store of the cache.
type Store interface {
	LoadUsage(ctx context.Context) (map[string]map[string]models.UsageRecord, error)
	SaveUsage(ctx context.Context, entries []models.CacheEntry) error
}

type entryKey struct {
	gid      string
	monthKey string
}

// Cache memoizes usage records keyed by group id and month key. It is not safe
// for concurrent use.
type Cache struct {
	store    Store
	required []string
	entries  map[entryKey]models.UsageRecord
	dirty    map[entryKey]struct{}

	hits   int
	misses int
}

// New returns an empty cache backed by store. Records missing any of the
// required keys are treated as absent.
func New(store Store, required []string) *Cache {
	return &Cache{
		store:    store,
		required: append([]string(nil), required...),
		entries:  make(map[entryKey]models.UsageRecord),
		dirty:    make(map[entryKey]struct{}),
	}
}

// Load reads the whole durable store into a new cache.
func Load(ctx context.Context, store Store, required []string) (*Cache, error) {
	c := New(store, required)

	stored, err := store.LoadUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage cache: %w", err)
	}
	for gid, months := range stored {
		for monthKey, record := range months {
			c.entries[entryKey{gid, monthKey}] = record
		}
	}
	logger.Debug("loaded usage cache", "entries", len(c.entries))
	return c, nil
}

// GetOrCompute returns the cached record for (gid, monthKey) when it is
// valid. Otherwise it calls compute, stores the result and returns it.
// A compute error is returned as-is and nothing is stored.
func (c *Cache) GetOrCompute(gid, monthKey string, compute func() (models.UsageRecord, error)) (models.UsageRecord, error) {
	key := entryKey{gid, monthKey}

	if record, ok := c.entries[key]; ok {
		if record.Valid(c.required) {
			c.hits++
			return record.Clone(), nil
		}
		logger.Debug("invalid cached usage, recomputing", "gid", gid, "month", monthKey)
	}

	c.misses++
	record, err := compute()
	if err != nil {
		return nil, err
	}

	c.entries[key] = record.Clone()
	c.dirty[key] = struct{}{}
	return record, nil
}

// Peek returns the cached record for (gid, monthKey) if it is valid.
func (c *Cache) Peek(gid, monthKey string) (models.UsageRecord, bool) {
	record, ok := c.entries[entryKey{gid, monthKey}]
	if !ok || !record.Valid(c.required) {
		return nil, false
	}
	return record.Clone(), true
}

// Pending returns the number of records computed since the last flush.
func (c *Cache) Pending() int {
	return len(c.dirty)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Flush writes every record computed since the last flush to the store in a
// single call. It does nothing when there is nothing to write.
func (c *Cache) Flush(ctx context.Context) error {
	if len(c.dirty) == 0 {
		return nil
	}

	entries := make([]models.CacheEntry, 0, len(c.dirty))
	for key := range c.dirty {
		entries = append(entries, models.CacheEntry{
			GID:      key.gid,
			MonthKey: key.monthKey,
			Record:   c.entries[key].Clone(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MonthKey != entries[j].MonthKey {
			return entries[i].MonthKey < entries[j].MonthKey
		}
		return entries[i].GID < entries[j].GID
	})

	if err := c.store.SaveUsage(ctx, entries); err != nil {
		return fmt.Errorf("failed to persist usage cache: %w", err)
	}

	logger.Info("persisted usage cache", "entries", len(entries))
	c.dirty = make(map[entryKey]struct{})
	return nil
}
