package parse

import (
	"fmt"
	"strings"
)

// Field is one fixed-width column of accounting output.
type Field struct {
	Name  string
	Width int
}

// Layout is the ordered column list used to request and decode fixed-width
// output. Columns are separated by a single space.
type Layout []Field

// Sacct field names.
const (
	FieldJobID     = "JobID"
	FieldUser      = "User"
	FieldGroup     = "Group"
	FieldState     = "State"
	FieldElapsed   = "Elapsed"
	FieldNCPUS     = "NCPUS"
	FieldPartition = "Partition"
	FieldReqMem    = "ReqMem"
	FieldReqNodes  = "ReqNodes"
	FieldMaxRSS    = "MaxRSS"
	FieldAllocTRES = "AllocTres"
)

// SacctLayout is the column layout requested from sacct.
var SacctLayout = Layout{
	{FieldJobID, 20},
	{FieldUser, 20},
	{FieldGroup, 20},
	{FieldState, 20},
	{FieldElapsed, 20},
	{FieldNCPUS, 5},
	{FieldPartition, 20},
	{FieldReqMem, 20},
	{FieldReqNodes, 5},
	{FieldMaxRSS, 15},
	{FieldAllocTRES, 50},
}

// Format renders the layout as a sacct --format argument.
func (l Layout) Format() string {
	parts := make([]string, len(l))
	for i, f := range l {
		parts[i] = fmt.Sprintf("%s%%%d", f.Name, f.Width)
	}
	return strings.Join(parts, ",")
}

// Offset returns the start column and width of a field, or ok=false if the
// layout has no such field.
func (l Layout) Offset(name string) (start, width int, ok bool) {
	for _, f := range l {
		if f.Name == name {
			return start, f.Width, true
		}
		start += f.Width + 1
	}
	return 0, 0, false
}

// Field extracts and trims one field from a line. Short lines yield "".
func (l Layout) Field(line, name string) string {
	start, width, ok := l.Offset(name)
	if !ok || start >= len(line) {
		return ""
	}
	end := start + width
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}

// Fields decodes every field of a line.
func (l Layout) Fields(line string) map[string]string {
	fields := make(map[string]string, len(l))
	for _, f := range l {
		fields[f.Name] = l.Field(line, f.Name)
	}
	return fields
}
