// Package models defines data structures and domain types.
package models

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Usage keys produced by the compute generators.
const (
	KeyCPUUsage = "cpuUsage"
	KeyGPUUsage = "gpuUsage"
	KeyReqMem   = "reqMem"
	KeyAllocMem = "allocMem"
)

// Usage keys produced by the storage generator.
const (
	KeyDataStorage    = "dataStorage"
	KeyScratchStorage = "scratchStorage"
	KeyHomeStorage    = "homeStorage"
)

// Usage keys produced by the cluster utilization generator.
const (
	KeyCPUAllocatedPct   = "cpuAllocatedPct"
	KeyCPUIdlePct        = "cpuIdlePct"
	KeyCPUDownPct        = "cpuDownPct"
	KeyCPUPlannedDownPct = "cpuPlannedDownPct"
	KeyGPUAllocatedPct   = "gpuAllocatedPct"
	KeyGPUIdlePct        = "gpuIdlePct"
	KeyGPUDownPct        = "gpuDownPct"
	KeyGPUPlannedDownPct = "gpuPlannedDownPct"
)

// Sentinel group ids.
const (
	// MiscGroup collects usage that cannot be attributed to a known group.
	MiscGroup = "misc"
	// SnapshotsGroup holds filesystem snapshot storage.
	SnapshotsGroup = "snapshots"
	// ClusterGroup holds cluster-wide metrics that belong to no group.
	ClusterGroup = "cluster"
)

// ComputeKeys lists the keys every compute usage record must carry.
var ComputeKeys = []string{KeyCPUUsage, KeyGPUUsage, KeyReqMem, KeyAllocMem}

// ErrDuplicateUsageKey is returned when two generators emit the same key for one month.
var ErrDuplicateUsageKey = errors.New("usage key already set for month")

// UsageRecord maps usage keys to values for one group in one month.
type UsageRecord map[string]float64

// Valid reports whether the record is non-empty, carries every required key
// and holds no NaN values.
func (r UsageRecord) Valid(required []string) bool {
	if len(r) == 0 {
		return false
	}
	for _, key := range required {
		v, ok := r[key]
		if !ok || math.IsNaN(v) {
			return false
		}
	}
	for _, v := range r {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the record.
func (r UsageRecord) Clone() UsageRecord {
	if r == nil {
		return nil
	}
	out := make(UsageRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// NewUsageRecord returns a record with every key set to zero.
func NewUsageRecord(keys []string) UsageRecord {
	r := make(UsageRecord, len(keys))
	for _, k := range keys {
		r[k] = 0
	}
	return r
}

// MonthlyUsage maps usage key -> group id -> value for one calendar month.
type MonthlyUsage map[string]map[string]float64

// Merge adds the keys of partial. A key that is already present is an error.
func (m MonthlyUsage) Merge(partial MonthlyUsage) error {
	for key := range partial {
		if _, exists := m[key]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateUsageKey, key)
		}
	}
	for key, byGroup := range partial {
		values := make(map[string]float64, len(byGroup))
		for gid, v := range byGroup {
			values[gid] = v
		}
		m[key] = values
	}
	return nil
}

// Set stores a value, creating the key map as needed.
func (m MonthlyUsage) Set(key, gid string, value float64) {
	if m[key] == nil {
		m[key] = make(map[string]float64)
	}
	m[key][gid] = value
}

// Add accumulates a value into key/gid.
func (m MonthlyUsage) Add(key, gid string, value float64) {
	if m[key] == nil {
		m[key] = make(map[string]float64)
	}
	m[key][gid] += value
}

// Value returns the value for key and group, or 0 when absent.
func (m MonthlyUsage) Value(key, gid string) float64 {
	if byGroup, ok := m[key]; ok {
		return byGroup[gid]
	}
	return 0
}

// Keys returns the usage keys in sorted order.
func (m MonthlyUsage) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Groups returns every group id that appears under any key, sorted.
func (m MonthlyUsage) Groups() []string {
	seen := make(map[string]struct{})
	for _, byGroup := range m {
		for gid := range byGroup {
			seen[gid] = struct{}{}
		}
	}
	groups := make([]string, 0, len(seen))
	for gid := range seen {
		groups = append(groups, gid)
	}
	slices.Sort(groups)
	return groups
}

// CacheEntry is one memoized usage record for a group and month.
type CacheEntry struct {
	GID      string
	MonthKey string
	Record   UsageRecord
}
