package parse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
)

// OwnerStorage maps an owner id to gigabytes used.
type OwnerStorage map[string]float64

// readLines reads all lines of r after skipping the first skip lines.
func readLines(r io.Reader, skip int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	n := 0
	for scanner.Scan() {
		n++
		if n <= skip {
			continue
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	return lines, nil
}

// ParseQuotaListing reads a quota listing whose lines start with
// "<tier>:/<owner> <amount> <unit>". It returns tier -> owner -> gigabytes.
// Malformed lines are skipped.
func ParseQuotaListing(r io.Reader, preamble int) (map[string]OwnerStorage, error) {
	lines, err := readLines(r, preamble)
	if err != nil {
		return nil, err
	}

	usage := make(map[string]OwnerStorage)
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) < 3 {
			continue
		}
		tier, owner, ok := strings.Cut(tokens[0], ":/")
		if !ok || tier == "" || owner == "" {
			logger.Debug("skipping quota line without tier", "line", line)
			continue
		}
		owner = strings.TrimSuffix(owner, "/")
		gb, err := StorageToGB(tokens[1], tokens[2])
		if err != nil {
			logger.Warn("skipping malformed quota line", "line", line, "error", err)
			continue
		}
		if usage[tier] == nil {
			usage[tier] = make(OwnerStorage)
		}
		usage[tier][owner] += gb
	}
	return usage, nil
}

// ParseStorageReport reads a per-filesystem storage report. Only user quota
// lines (containing "USR") are used; the owner is the first comma-separated id
// of the first token and the size is the last token.
func ParseStorageReport(r io.Reader, preamble int) (OwnerStorage, error) {
	lines, err := readLines(r, preamble)
	if err != nil {
		return nil, err
	}

	usage := make(OwnerStorage)
	for _, line := range lines {
		if !strings.Contains(line, "USR") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			continue
		}
		gb, err := ParseStorage(tokens[len(tokens)-1])
		if err != nil {
			logger.Warn("skipping malformed storage line", "line", line, "error", err)
			continue
		}
		owner, _, _ := strings.Cut(tokens[0], ",")
		usage[owner] += gb
	}
	return usage, nil
}

// snapshotHeaderLines is the header length of a snapshot report.
const snapshotHeaderLines = 2

// ParseSnapshotReport sums the last two columns of every line of a snapshot
// report. Lines that do not end in two numbers are ignored.
func ParseSnapshotReport(r io.Reader) (float64, error) {
	lines, err := readLines(r, snapshotHeaderLines)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			continue
		}
		a, errA := strconv.ParseFloat(tokens[len(tokens)-2], 64)
		b, errB := strconv.ParseFloat(tokens[len(tokens)-1], 64)
		if errA != nil || errB != nil {
			continue
		}
		total += a + b
	}
	return total, nil
}
