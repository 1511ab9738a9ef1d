package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuotaListing(t *testing.T) {
	listing := strings.Join([]string{
		"Quota report",
		"generated nightly",
		"data:/alice1 500 GB 1 TB",
		"data:/alice1 500 MB",
		"scratch:/bob 2 TB",
		"data:/proj-x 1500000000 B",
		"garbage line",
		"data:/carol 12 PB",
		"/home/dave 1 GB",
		"",
	}, "\n")

	usage, err := ParseQuotaListing(strings.NewReader(listing), 2)
	require.NoError(t, err)

	require.Contains(t, usage, "data")
	require.Contains(t, usage, "scratch")
	assert.Len(t, usage, 2)
	assert.InDelta(t, 500.5, usage["data"]["alice1"], 1e-9)
	assert.InDelta(t, 1.5, usage["data"]["proj-x"], 1e-9)
	assert.InDelta(t, 2000.0, usage["scratch"]["bob"], 1e-9)
	assert.NotContains(t, usage["data"], "carol")
}

func TestParseStorageReport(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteString("preamble\n")
	}
	b.WriteString("alice1,1001 USR 10G 12G 2T\n")
	b.WriteString("alice1,1001 USR 10G 12G 500M\n")
	b.WriteString("lab GRP 10G 12G 5T\n")
	b.WriteString("bob,1002 USR 0\n")

	usage, err := ParseStorageReport(strings.NewReader(b.String()), 9)
	require.NoError(t, err)
	assert.InDelta(t, 2000.5, usage["alice1"], 1e-9)
	assert.Zero(t, usage["bob"])
	assert.NotContains(t, usage, "lab")
}

func TestParseSnapshotReport(t *testing.T) {
	report := "Snapshot usage\n==============\nsnap-a 2024 10 5.5\nsnap-b 2024 1 1\nsnap-c total n/a\n"

	total, err := ParseSnapshotReport(strings.NewReader(report))
	require.NoError(t, err)
	assert.InDelta(t, 17.5, total, 1e-9)
}
