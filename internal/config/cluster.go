package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// Cluster describes the hardware and storage listings of one cluster.
type Cluster struct {
	Name           string                 `yaml:"name"`
	Nodes          []models.NodeClass     `yaml:"nodes"`
	StorageGB      float64                `yaml:"storage_gb"`
	StorageSources []models.StorageSource `yaml:"storage_sources"`
	SnapshotReport string                 `yaml:"snapshot_report"`
	SnapshotTier   string                 `yaml:"snapshot_tier"`
	MiscOwners     []string               `yaml:"misc_owners"`
}

// DefaultCluster returns the Andromeda inventory.
func DefaultCluster() *Cluster {
	return &Cluster{
		Name: "andromeda",
		Nodes: []models.NodeClass{
			{Name: "48-core", Count: 94, Cores: 48, MemoryGB: 192},
			{Name: "48-core-gpu", Count: 3, Cores: 48, GPUs: 4, MemoryGB: 192},
			{Name: "64-core", Count: 134, Cores: 64, MemoryGB: 256},
			{Name: "64-core-gpu", Count: 4, Cores: 64, GPUs: 4, MemoryGB: 256},
		},
		StorageGB: 0.9e6,
		StorageSources: []models.StorageSource{
			{Path: "/data/usage/data_report", Format: models.StorageFormatReport, Preamble: 9, Tier: models.KeyDataStorage},
			{Path: "/scratch/usage/scratch_report", Format: models.StorageFormatReport, Preamble: 9, Tier: models.KeyScratchStorage},
		},
		SnapshotReport: "/data/usage/snapshots",
		SnapshotTier:   models.KeyDataStorage,
		MiscOwners:     []string{"data-move", "from_sirius_data"},
	}
}

// Capacity returns the cluster's theoretical capacity.
func (c *Cluster) Capacity() models.Capacity {
	return models.CapacityOf(c.Nodes, c.StorageGB)
}

// LoadCluster reads a cluster description. A missing file yields
// DefaultCluster. Fields absent from the file keep their defaults.
func LoadCluster(path string) (*Cluster, error) {
	cluster := DefaultCluster()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cluster, nil
		}
		return nil, fmt.Errorf("failed to read cluster config: %w", err)
	}

	if err := yaml.Unmarshal(data, cluster); err != nil {
		return nil, fmt.Errorf("failed to parse cluster config %s: %w", path, err)
	}
	if err := cluster.validate(); err != nil {
		return nil, fmt.Errorf("cluster config %s: %w", path, err)
	}
	return cluster, nil
}

func (c *Cluster) validate() error {
	for _, n := range c.Nodes {
		if n.Count < 0 || n.Cores < 0 || n.GPUs < 0 || n.MemoryGB < 0 {
			return fmt.Errorf("node class %q has negative counts", n.Name)
		}
	}
	for _, src := range c.StorageSources {
		switch src.Format {
		case models.StorageFormatQuota:
			if len(src.TierKeys) == 0 {
				return fmt.Errorf("quota listing %s needs tier_keys", src.Path)
			}
		case models.StorageFormatReport, "":
			if src.Tier == "" {
				return fmt.Errorf("storage report %s needs a tier", src.Path)
			}
		default:
			return fmt.Errorf("storage listing %s: unknown format %q", src.Path, src.Format)
		}
	}
	return nil
}
