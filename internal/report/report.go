// Package report assembles monthly usage into a month-ordered view that can be
// queried by usage key, group and month index.
package report

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// ErrWindow is returned when months and usages do not form a contiguous window.
var ErrWindow = errors.New("invalid report window")

// Report is an ordered window of monthly usage. A group absent from a month
// reads as 0 for that month.
type Report struct {
	months []models.Month
	usages []models.MonthlyUsage
	groups []string
	keys   []string
}

// New sorts months and usages together and checks that they cover
// consecutive months. The report's groups are the supplied groups plus every
// group that appears in any month.
func New(months []models.Month, usages []models.MonthlyUsage, groups []string) (*Report, error) {
	if len(months) != len(usages) {
		return nil, fmt.Errorf("%w: %d months but %d usages", ErrWindow, len(months), len(usages))
	}
	if len(months) == 0 {
		return nil, fmt.Errorf("%w: no months", ErrWindow)
	}

	idx := make([]int, len(months))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return months[idx[a]].Key() < months[idx[b]].Key()
	})

	r := &Report{
		months: make([]models.Month, len(months)),
		usages: make([]models.MonthlyUsage, len(months)),
	}
	for i, j := range idx {
		r.months[i] = months[j]
		r.usages[i] = usages[j]
		if r.usages[i] == nil {
			r.usages[i] = make(models.MonthlyUsage)
		}
	}

	for i := 1; i < len(r.months); i++ {
		prev, cur := r.months[i-1], r.months[i]
		if prev.Key() == cur.Key() {
			return nil, fmt.Errorf("%w: duplicate month %s", ErrWindow, cur)
		}
		if prev.Add(1).Key() != cur.Key() {
			return nil, fmt.Errorf("%w: gap between %s and %s", ErrWindow, prev, cur)
		}
	}

	groupSet := make(map[string]struct{}, len(groups))
	keySet := make(map[string]struct{})
	for _, gid := range groups {
		groupSet[gid] = struct{}{}
	}
	for _, usage := range r.usages {
		for _, gid := range usage.Groups() {
			groupSet[gid] = struct{}{}
		}
		for _, key := range usage.Keys() {
			keySet[key] = struct{}{}
		}
	}
	r.groups = sortedKeys(groupSet)
	r.keys = sortedKeys(keySet)

	return r, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Months returns the window, oldest first.
func (r *Report) Months() []models.Month {
	return slices.Clone(r.months)
}

// Len returns the number of months in the window.
func (r *Report) Len() int {
	return len(r.months)
}

// Groups returns every group id in the report, sorted.
func (r *Report) Groups() []string {
	return slices.Clone(r.groups)
}

// Keys returns every usage key in the report, sorted.
func (r *Report) Keys() []string {
	return slices.Clone(r.keys)
}

// HasKey reports whether any month carries key.
func (r *Report) HasKey(key string) bool {
	_, found := slices.BinarySearch(r.keys, key)
	return found
}

func (r *Report) index(idx int) (int, error) {
	if idx < 0 {
		idx += len(r.months)
	}
	if idx < 0 || idx >= len(r.months) {
		return 0, fmt.Errorf("month index out of range [%d] with length %d", idx, len(r.months))
	}
	return idx, nil
}

// Query returns group -> value of key for one month. A negative idx counts
// from the newest month, so -1 is the most recent.
func (r *Report) Query(key string, idx int) (map[string]float64, error) {
	i, err := r.index(idx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(r.groups))
	for _, gid := range r.groups {
		out[gid] = r.usages[i].Value(key, gid)
	}
	return out, nil
}

// QueryAll returns Query for every month, oldest first.
func (r *Report) QueryAll(key string) []map[string]float64 {
	out := make([]map[string]float64, len(r.months))
	for i := range r.months {
		out[i], _ = r.Query(key, i)
	}
	return out
}

// GroupUsage returns key -> group -> per-month series. Every series has one
// value per month.
func (r *Report) GroupUsage(keys ...string) map[string]map[string][]float64 {
	if len(keys) == 0 {
		keys = r.keys
	}
	out := make(map[string]map[string][]float64, len(keys))
	for _, key := range keys {
		byGroup := make(map[string][]float64, len(r.groups))
		for _, gid := range r.groups {
			series := make([]float64, len(r.months))
			for i, usage := range r.usages {
				series[i] = usage.Value(key, gid)
			}
			byGroup[gid] = series
		}
		out[key] = byGroup
	}
	return out
}

// SumUsage returns key -> per-month total over all groups.
func (r *Report) SumUsage(keys ...string) map[string][]float64 {
	if len(keys) == 0 {
		keys = r.keys
	}
	out := make(map[string][]float64, len(keys))
	for _, key := range keys {
		series := make([]float64, len(r.months))
		for i, usage := range r.usages {
			for _, gid := range r.groups {
				series[i] += usage.Value(key, gid)
			}
		}
		out[key] = series
	}
	return out
}

// Totals returns group -> sum of key over the window.
func (r *Report) Totals(key string) map[string]float64 {
	out := make(map[string]float64, len(r.groups))
	for _, gid := range r.groups {
		var sum float64
		for _, usage := range r.usages {
			sum += usage.Value(key, gid)
		}
		out[gid] = sum
	}
	return out
}

// ByDepartment folds group values by department. Groups for which dept
// returns "" are skipped.
func ByDepartment(values map[string]float64, dept func(gid string) string) map[string]float64 {
	out := make(map[string]float64)
	for gid, v := range values {
		d := dept(gid)
		if d == "" {
			continue
		}
		out[d] += v
	}
	return out
}
