package store

import (
	"time"

	"github.com/ritzau/org-directory/pkg/cycles"
	"github.com/ritzau/org-directory/pkg/directory"
	"github.com/ritzau/org-directory/pkg/graph"
	"github.com/ritzau/org-directory/pkg/model"
)

// Origin describes where a snapshot's records came from
type Origin struct {
	Name     string `json:"name"`               // e.g. "seed", "spreadsheet", "remote", "upload"
	Location string `json:"location,omitempty"` // File path or URL
	Fallback bool   `json:"fallback"`           // Loaded because the primary source failed
}

// Snapshot is one immutable generation of the directory. Nothing in it is
// modified after publication; edits build a new snapshot.
type Snapshot struct {
	Employees []model.Employee // Deduplicated, in snapshot order
	Index     *directory.Index
	Cycles    []cycles.ManagementCycle
	Origin    Origin
	LoadedAt  time.Time
	Version   int64
}

func newSnapshot(records []model.Employee, origin Origin, version int64, now time.Time) *Snapshot {
	normalized := make([]model.Employee, 0, len(records))
	for _, rec := range records {
		normalized = append(normalized, rec.Normalize())
	}

	ix := directory.NewIndex(normalized)
	return &Snapshot{
		Employees: ix.Records(),
		Index:     ix,
		Cycles:    cycles.FindManagementCycles(graph.BuildReportingGraph(normalized)),
		Origin:    origin,
		LoadedAt:  now,
		Version:   version,
	}
}

// Len returns the number of distinct people in the snapshot
func (s *Snapshot) Len() int {
	return s.Index.Len()
}
