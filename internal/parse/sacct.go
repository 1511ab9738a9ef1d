package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// JobLines is the header line of one job followed by its step lines.
// Start and End index the job's half-open range in the split output.
type JobLines struct {
	Lines []string
	Start int
	End   int
}

// StateCounted reports whether a job in the given state contributes usage.
// Pending, running, failed and cancelled jobs are excluded.
func StateCounted(state string) bool {
	switch state {
	case "PENDING", "RUNNING", "FAILED":
		return false
	}
	return !strings.Contains(state, "CANCELLED")
}

// isRule reports whether a line is the dashed rule under the column headers.
func isRule(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && strings.Trim(trimmed, "- ") == ""
}

// headerEnd returns the index of the first data line, skipping the column
// header block when present.
func headerEnd(lines []string) int {
	for i := 0; i < len(lines) && i < 2; i++ {
		if isRule(lines[i]) {
			return i + 1
		}
	}
	return 0
}

// SegmentJobs splits sacct output into per-job line groups. A job starts on a
// non-empty line with a user and a counted state; following lines without a
// user are its steps. Lines of excluded jobs belong to no group.
func SegmentJobs(output string, layout Layout) []JobLines {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	var jobs []JobLines
	var current *JobLines
	flush := func(end int) {
		if current != nil {
			current.End = end
			current.Lines = lines[current.Start:end:end]
			jobs = append(jobs, *current)
			current = nil
		}
	}

	for i := headerEnd(lines); i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			flush(i)
			continue
		}
		if layout.Field(line, FieldUser) == "" {
			// step line, or orphan of an excluded job
			continue
		}
		flush(i)
		if StateCounted(layout.Field(line, FieldState)) {
			current = &JobLines{Start: i}
		}
	}
	flush(len(lines))

	return jobs
}

var gpuPattern = regexp.MustCompile(`gres/gpu=(\d+)`)

// AssembleJob computes the usage of one job from its header and step lines.
func AssembleJob(lines []string, layout Layout) (models.Job, error) {
	if len(lines) == 0 {
		return models.Job{}, fmt.Errorf("%w: empty job", ErrFormat)
	}
	head := layout.Fields(lines[0])

	job := models.Job{
		ID:        head[FieldJobID],
		User:      head[FieldUser],
		Group:     head[FieldGroup],
		State:     head[FieldState],
		Partition: head[FieldPartition],
	}

	elapsed, err := ParseElapsed(head[FieldElapsed])
	if err != nil {
		return job, fmt.Errorf("job %s: %w", job.ID, err)
	}
	cores, err := strconv.Atoi(head[FieldNCPUS])
	if err != nil {
		return job, fmt.Errorf("job %s: %w: cores %q", job.ID, ErrFormat, head[FieldNCPUS])
	}
	nodes, err := strconv.Atoi(head[FieldReqNodes])
	if err != nil {
		return job, fmt.Errorf("job %s: %w: nodes %q", job.ID, ErrFormat, head[FieldReqNodes])
	}

	job.CPUHours = elapsed * float64(cores)

	if strings.Contains(job.Partition, "gpu") {
		if m := gpuPattern.FindStringSubmatch(head[FieldAllocTRES]); m != nil {
			gpus, _ := strconv.Atoi(m[1])
			job.GPUHours = elapsed * float64(gpus)
		}
	}

	memGB, err := ParseMemory(head[FieldReqMem], cores, nodes)
	if err != nil {
		return job, fmt.Errorf("job %s: %w", job.ID, err)
	}
	job.ReqMemGBHours = elapsed * memGB

	for _, step := range lines[1:] {
		rss := layout.Field(step, FieldMaxRSS)
		if rss == "" {
			continue
		}
		stepElapsed, err := ParseElapsed(layout.Field(step, FieldElapsed))
		if err != nil {
			return job, fmt.Errorf("job %s step: %w", job.ID, err)
		}
		rssGB, err := ParseRSS(rss)
		if err != nil {
			return job, fmt.Errorf("job %s step: %w", job.ID, err)
		}
		job.AllocMemGBHours += rssGB * stepElapsed
	}

	return job, nil
}

// ParseJobs segments sacct output and assembles every job. Jobs that fail to
// parse are logged and skipped.
func ParseJobs(output string, layout Layout) []models.Job {
	segments := SegmentJobs(output, layout)
	jobs := make([]models.Job, 0, len(segments))
	for _, seg := range segments {
		job, err := AssembleJob(seg.Lines, layout)
		if err != nil {
			logger.Warn("skipping malformed job", "line", seg.Start, "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
