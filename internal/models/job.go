package models

// Job is the usage of one completed accounting job, decoded from its header
// and step lines.
type Job struct {
	ID              string
	User            string
	Group           string
	State           string
	Partition       string
	CPUHours        float64
	GPUHours        float64
	ReqMemGBHours   float64
	AllocMemGBHours float64
}

// Record converts the job into a compute usage record.
func (j Job) Record() UsageRecord {
	return UsageRecord{
		KeyCPUUsage: j.CPUHours,
		KeyGPUUsage: j.GPUHours,
		KeyReqMem:   j.ReqMemGBHours,
		KeyAllocMem: j.AllocMemGBHours,
	}
}

// UtilizationRow holds the percentages reported for one trackable resource.
type UtilizationRow struct {
	Allocated   float64
	Down        float64
	PlannedDown float64
	Idle        float64
	Planned     float64
	Reported    float64
}

// ClusterUtilization is the cluster-wide utilization for one month.
type ClusterUtilization struct {
	CPU UtilizationRow
	GPU UtilizationRow
}

// Usage flattens the utilization into usage keys under ClusterGroup.
func (c ClusterUtilization) Usage() MonthlyUsage {
	usage := make(MonthlyUsage)
	usage.Set(KeyCPUAllocatedPct, ClusterGroup, c.CPU.Allocated)
	usage.Set(KeyCPUIdlePct, ClusterGroup, c.CPU.Idle)
	usage.Set(KeyCPUDownPct, ClusterGroup, c.CPU.Down)
	usage.Set(KeyCPUPlannedDownPct, ClusterGroup, c.CPU.PlannedDown)
	usage.Set(KeyGPUAllocatedPct, ClusterGroup, c.GPU.Allocated)
	usage.Set(KeyGPUIdlePct, ClusterGroup, c.GPU.Idle)
	usage.Set(KeyGPUDownPct, ClusterGroup, c.GPU.Down)
	usage.Set(KeyGPUPlannedDownPct, ClusterGroup, c.GPU.PlannedDown)
	return usage
}
