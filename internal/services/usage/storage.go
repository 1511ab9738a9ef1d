package usage

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/parse"
	"github.com/j-veylop/hpc-usage-report/internal/roster"
)

// RawStorage maps usage key -> owner id -> gigabytes, before owners are
// attributed to groups.
type RawStorage map[string]parse.OwnerStorage

// StorageCallback adjusts raw storage before attribution.
type StorageCallback func(raw RawStorage) error

// DefaultMiscOwners are system owners folded into misc by SnapshotCallback.
var DefaultMiscOwners = []string{"data-move", "from_sirius_data"}

// Storage reads storage listings and attributes each owner to its group.
// Owners that are neither a known user nor a project are dropped; only the
// misc and snapshots sentinels survive.
type Storage struct {
	sources  []models.StorageSource
	resolver *roster.Resolver
	callback StorageCallback
}

func NewStorage(sources []models.StorageSource, resolver *roster.Resolver, callback StorageCallback) *Storage {
	return &Storage{sources: sources, resolver: resolver, callback: callback}
}

func (g *Storage) Name() string { return "storage" }

// Produce reads the listings as they are now. The month only labels errors.
func (g *Storage) Produce(ctx context.Context, month models.Month) (models.MonthlyUsage, error) {
	raw, err := g.Read(ctx)
	if err != nil {
		return nil, err
	}

	if g.callback != nil {
		if err := g.callback(raw); err != nil {
			return nil, fmt.Errorf("storage callback: %w", err)
		}
	}

	out := make(models.MonthlyUsage)
	for key, owners := range raw {
		out[key] = g.categorize(owners)
		for _, gid := range g.resolver.Groups() {
			if _, ok := out[key][gid]; !ok {
				out[key][gid] = 0
			}
		}
	}
	logger.Debug("read storage usage", "month", month.Key(), "keys", len(out))
	return out, nil
}

// Read parses every configured listing into raw per-owner storage.
func (g *Storage) Read(ctx context.Context) (RawStorage, error) {
	raw := make(RawStorage)
	add := func(key string, owners parse.OwnerStorage) {
		if raw[key] == nil {
			raw[key] = make(parse.OwnerStorage)
		}
		for owner, gb := range owners {
			raw[key][owner] += gb
		}
	}

	for _, src := range g.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage listing: %w", err)
		}

		switch src.Format {
		case models.StorageFormatQuota:
			var tiers map[string]parse.OwnerStorage
			tiers, err = parse.ParseQuotaListing(f, src.Preamble)
			for tier, owners := range tiers {
				key, ok := src.TierKeys[tier]
				if !ok {
					logger.Debug("ignoring unmapped storage tier", "tier", tier, "path", src.Path)
					continue
				}
				add(key, owners)
			}
		case models.StorageFormatReport, "":
			var owners parse.OwnerStorage
			owners, err = parse.ParseStorageReport(f, src.Preamble)
			if err == nil {
				add(src.Tier, owners)
			}
		default:
			err = fmt.Errorf("unknown storage listing format %q", src.Format)
		}
		f.Close()

		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Path, err)
		}
	}
	return raw, nil
}

// categorize folds owners into groups.
func (g *Storage) categorize(owners parse.OwnerStorage) map[string]float64 {
	byGroup := make(map[string]float64)
	for owner, gb := range owners {
		switch {
		case g.resolver.IsKnownOwner(owner):
			byGroup[g.resolver.ResolveOwner(owner)] += gb
		case owner == models.MiscGroup || owner == models.SnapshotsGroup:
			byGroup[owner] += gb
		default:
			logger.Debug("dropping unattributed storage owner", "owner", owner, "gb", gb)
		}
	}
	return byGroup
}

// SnapshotCallback returns a callback that records the snapshot report total
// under the snapshots owner of tierKey and folds numeric owners and
// extraMisc owners into misc in every tier. A nil extraMisc selects
// DefaultMiscOwners.
func SnapshotCallback(path, tierKey string, extraMisc []string) StorageCallback {
	if extraMisc == nil {
		extraMisc = DefaultMiscOwners
	}
	return func(raw RawStorage) error {
		if owners, ok := raw[tierKey]; ok && path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open snapshot report: %w", err)
			}
			total, err := parse.ParseSnapshotReport(f)
			f.Close()
			if err != nil {
				return err
			}
			owners[models.SnapshotsGroup] = total
		}

		for _, owners := range raw {
			for owner, gb := range owners {
				if !isNumeric(owner) && !slices.Contains(extraMisc, owner) {
					continue
				}
				delete(owners, owner)
				owners[models.MiscGroup] += gb
			}
		}
		return nil
	}
}

func isNumeric(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}
