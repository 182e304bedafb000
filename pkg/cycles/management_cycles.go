// Package cycles detects people whose manager chain loops back to themselves.
package cycles

import (
	"sort"

	"github.com/ritzau/org-directory/pkg/graph"
)

// ManagementCycle is a group of people whose manager references form a loop
type ManagementCycle struct {
	Members []string `json:"members"` // Sorted by name
}

// FindManagementCycles returns every loop in the reporting graph, including
// people recorded as their own manager. Cycles are ordered by first member.
func FindManagementCycles(rg *graph.ReportingGraph) []ManagementCycle {
	tarjan := NewTarjanSCC(rg.Graph())

	cycles := make([]ManagementCycle, 0)
	for _, scc := range tarjan.FindSCCs() {
		members := make([]string, 0, len(scc))
		for _, id := range scc {
			if node := rg.GetNodeByID(id); node != nil {
				members = append(members, node.Name)
			}
		}
		sort.Strings(members)
		cycles = append(cycles, ManagementCycle{Members: members})
	}

	for _, name := range rg.SelfManaged() {
		cycles = append(cycles, ManagementCycle{Members: []string{name}})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Members[0] < cycles[j].Members[0]
	})
	return cycles
}

// Involved returns the set of names that sit on any cycle
func Involved(cycles []ManagementCycle) map[string]bool {
	names := make(map[string]bool)
	for _, c := range cycles {
		for _, m := range c.Members {
			names[m] = true
		}
	}
	return names
}
