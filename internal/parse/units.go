// Package parse decodes the text output of the Slurm accounting tools and
// storage quota listings into typed values.
package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrFormat is returned for a malformed time, memory or storage string.
	ErrFormat = errors.New("malformed value")
	// ErrMissingMetric is returned when an expected row is absent from a report.
	ErrMissingMetric = errors.New("missing metric")
)

// ParseElapsed converts a "[days-]HH:MM:SS" duration to hours.
func ParseElapsed(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if days, rest, found := strings.Cut(s, "-"); found {
		d, err := strconv.Atoi(days)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("%w: elapsed %q", ErrFormat, s)
		}
		hours, err := ParseElapsed(rest)
		if err != nil {
			return 0, err
		}
		return 24*float64(d) + hours, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: elapsed %q", ErrFormat, s)
	}
	var hms [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: elapsed %q", ErrFormat, s)
		}
		hms[i] = v
	}
	return float64(hms[0]) + float64(hms[1])/60 + float64(hms[2])/3600, nil
}

var memPattern = regexp.MustCompile(`^([0-9]*\.?[0-9]+)([A-Za-z]*)$`)

// ParseMemory converts a requested memory string such as "4Gn" or "512Mc" to
// gigabytes. The "n" scope multiplies by nodes, the "c" scope by cores. A
// value without a scope, as printed by Slurm 21.08 and later, is the job
// total.
func ParseMemory(s string, cores, nodes int) (float64, error) {
	m := memPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: memory %q", ErrFormat, s)
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: memory %q", ErrFormat, s)
	}
	if num == 0 {
		return 0, nil
	}

	suffix := m[2]
	if len(suffix) != 1 && len(suffix) != 2 {
		return 0, fmt.Errorf("%w: memory %q", ErrFormat, s)
	}

	var gb float64
	switch suffix[0] {
	case 'G':
		gb = num
	case 'M':
		gb = num / 1024
	default:
		return 0, fmt.Errorf("%w: memory unit %q", ErrFormat, s)
	}

	if len(suffix) == 1 {
		return gb, nil
	}

	switch suffix[1] {
	case 'n':
		gb *= float64(nodes)
	case 'c':
		gb *= float64(cores)
	default:
		return 0, fmt.Errorf("%w: memory scope %q", ErrFormat, s)
	}
	return gb, nil
}

// ParseStorage converts a size with a K, M, G or T suffix to gigabytes using
// powers of 1000. The literal "0" is accepted without a suffix.
func ParseStorage(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "0" {
		return 0, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: storage %q", ErrFormat, s)
	}
	num, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: storage %q", ErrFormat, s)
	}
	switch s[len(s)-1] {
	case 'K':
		return num / 1e6, nil
	case 'M':
		return num / 1e3, nil
	case 'G':
		return num, nil
	case 'T':
		return num * 1e3, nil
	}
	return 0, fmt.Errorf("%w: storage suffix %q", ErrFormat, s)
}

var storageUnits = map[string]float64{
	"B":  1e-9,
	"KB": 1e-6,
	"MB": 1e-3,
	"GB": 1,
	"TB": 1e3,
}

// StorageToGB converts an amount and unit pair (B, KB, MB, GB, TB) to gigabytes.
func StorageToGB(amount, unit string) (float64, error) {
	factor, ok := storageUnits[strings.ToUpper(strings.TrimSpace(unit))]
	if !ok {
		return 0, fmt.Errorf("%w: storage unit %q", ErrFormat, unit)
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil || num < 0 {
		return 0, fmt.Errorf("%w: storage amount %q", ErrFormat, amount)
	}
	return num * factor, nil
}

// ParseRSS converts a peak resident memory value such as "812K" or "1.5G" to
// gigabytes. An empty value is zero.
func ParseRSS(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	num, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rss %q", ErrFormat, s)
	}
	switch s[len(s)-1] {
	case 'K':
		return num / (1024 * 1024), nil
	case 'M':
		return num / 1024, nil
	case 'G':
		return num, nil
	}
	return 0, fmt.Errorf("%w: rss suffix %q", ErrFormat, s)
}
