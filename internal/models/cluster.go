package models

// hoursPerMonth is the average number of hours in a month.
const hoursPerMonth = 24 * 365 / 12.0

// NodeClass describes a set of identical compute nodes.
type NodeClass struct {
	Name     string `yaml:"name"`
	Count    int    `yaml:"count"`
	Cores    int    `yaml:"cores"`
	GPUs     int    `yaml:"gpus"`
	MemoryGB int    `yaml:"memory_gb"`
}

// Capacity is the theoretical monthly capacity of a cluster.
type Capacity struct {
	Cores     int
	GPUs      int
	MemoryGB  int
	StorageGB float64
}

// CapacityOf sums the node classes.
func CapacityOf(classes []NodeClass, storageGB float64) Capacity {
	c := Capacity{StorageGB: storageGB}
	for _, nc := range classes {
		c.Cores += nc.Count * nc.Cores
		c.GPUs += nc.Count * nc.GPUs
		c.MemoryGB += nc.Count * nc.MemoryGB
	}
	return c
}

// CPUHoursPerMonth returns the core hours available in an average month.
func (c Capacity) CPUHoursPerMonth() float64 {
	return float64(c.Cores) * hoursPerMonth
}

// GPUHoursPerMonth returns the GPU hours available in an average month.
func (c Capacity) GPUHoursPerMonth() float64 {
	return float64(c.GPUs) * hoursPerMonth
}

// MemGBHoursPerMonth returns the memory GB hours available in an average month.
func (c Capacity) MemGBHoursPerMonth() float64 {
	return float64(c.MemoryGB) * hoursPerMonth
}

// Storage listing formats.
const (
	StorageFormatQuota  = "quota"
	StorageFormatReport = "report"
)

// StorageSource describes one storage listing read by the storage generator.
// A quota listing names its tiers inline and TierKeys maps each tier to a
// usage key. A report listing feeds the single usage key Tier.
type StorageSource struct {
	Path     string            `yaml:"path"`
	Format   string            `yaml:"format"`
	Preamble int               `yaml:"preamble"`
	Tier     string            `yaml:"tier,omitempty"`
	TierKeys map[string]string `yaml:"tier_keys,omitempty"`
}
