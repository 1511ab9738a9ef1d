package models

import (
	"fmt"
	"time"
)

// monthKeyLayout is the layout of cache and report month keys.
const monthKeyLayout = "2006-01-02"

// Month is a calendar month, always normalized to the first day at midnight UTC.
type Month struct {
	t time.Time
}

// NewMonth normalizes t to the first day of its month.
func NewMonth(t time.Time) Month {
	return Month{t: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// MonthOf returns the month for a year and calendar month.
func MonthOf(year int, month time.Month) Month {
	return Month{t: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// ParseMonth parses "2006-01-02" or "2006-01" and drops the day.
func ParseMonth(s string) (Month, error) {
	for _, layout := range []string{monthKeyLayout, "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewMonth(t), nil
		}
	}
	return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM-DD or YYYY-MM", s)
}

// Time returns the first instant of the month.
func (m Month) Time() time.Time {
	return m.t
}

// Key returns the month key, e.g. "2024-03-01".
func (m Month) Key() string {
	return m.t.Format(monthKeyLayout)
}

// String implements fmt.Stringer.
func (m Month) String() string {
	return m.Key()
}

// End returns the last day of the month.
func (m Month) End() time.Time {
	end := m.t.AddDate(0, 0, 27).AddDate(0, 0, 4)
	return end.AddDate(0, 0, -end.Day())
}

// EndKey returns End formatted as a date.
func (m Month) EndKey() string {
	return m.End().Format(monthKeyLayout)
}

// Add returns the month n months later (or earlier for negative n).
func (m Month) Add(n int) Month {
	return Month{t: m.t.AddDate(0, n, 0)}
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	return m.t.Before(other.t)
}

// Label returns a short label such as "Mar2024".
func (m Month) Label() string {
	return m.t.Format("Jan2006")
}

// Name returns the full month name and year, e.g. "March" and "2024".
func (m Month) Name() (month, year string) {
	return m.t.Format("January"), m.t.Format("2006")
}

// Window returns the n months before current, oldest first.
func Window(current Month, n int) []Month {
	months := make([]Month, 0, n)
	for i := n; i >= 1; i-- {
		months = append(months, current.Add(-i))
	}
	return months
}
