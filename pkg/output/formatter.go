// Package output renders directory summaries for the terminal.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/org-directory/pkg/cycles"
	"github.com/ritzau/org-directory/pkg/model"
	"github.com/ritzau/org-directory/pkg/store"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// PrintStats prints a directory summary with colors
func PrintStats(w io.Writer, stats store.Stats) {
	bold.Fprintln(w, "Org Directory - Summary")
	bold.Fprintln(w, "=======================")

	source := stats.DataSource
	if stats.FallbackData {
		source += " (fallback data)"
		yellow.Fprintf(w, "Source: %s\n", source)
	} else {
		fmt.Fprintf(w, "Source: %s\n", source)
	}
	fmt.Fprintf(w, "Loaded: %s (snapshot %d)\n", stats.LastSync.Format("2006-01-02 15:04:05"), stats.SnapshotVersion)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Employees:   %d\n", stats.TotalEmployees)
	fmt.Fprintf(w, "Departments: %d\n", stats.DepartmentCount)
	fmt.Fprintf(w, "Countries:   %d\n", stats.CountryCount)
	fmt.Fprintf(w, "Locations:   %d\n", stats.LocationCount)
	fmt.Fprintf(w, "Top level:   %d\n", stats.RootCount)
	fmt.Fprintln(w)

	bold.Fprintln(w, "Connections:")
	green.Fprintf(w, "  Direct:   %d\n", stats.Connections.Direct)
	yellow.Fprintf(w, "  Indirect: %d\n", stats.Connections.Indirect)
	fmt.Fprintf(w, "  None:     %d\n", stats.Connections.None)

	if len(stats.Representatives) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Representatives:")
		names := make([]string, 0, len(stats.Representatives))
		for name := range stats.Representatives {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cyan.Fprintf(w, "  %-16s", name)
			fmt.Fprintf(w, " %d\n", stats.Representatives[name])
		}
	}

	fmt.Fprintln(w)
	printIssueCount(w, stats.Duplicates, "duplicate name(s), last occurrence kept")
	printIssueCount(w, stats.Cycles, "management cycle(s)")
	if stats.Duplicates == 0 && stats.Cycles == 0 {
		green.Fprintln(w, "✓ No data issues found")
	}
}

func printIssueCount(w io.Writer, n int, what string) {
	if n > 0 {
		yellow.Fprintf(w, "⚠ %d %s\n", n, what)
	}
}

// PrintTree prints a reporting tree with box-drawing guides
func PrintTree(w io.Writer, root *model.HierarchyNode) {
	printNode(w, root, "", "")
}

func printNode(w io.Writer, node *model.HierarchyNode, prefix, childPrefix string) {
	fmt.Fprint(w, prefix)
	bold.Fprint(w, node.Name)
	faint.Fprintf(w, " - %s, %s", node.Position, node.Location)
	switch strings.ToLower(node.Relationship) {
	case strings.ToLower(model.RelationshipDirect):
		green.Fprint(w, " [direct]")
	case strings.ToLower(model.RelationshipIndirect):
		yellow.Fprint(w, " [indirect]")
	}
	fmt.Fprintln(w)

	for i, child := range node.Children {
		if i == len(node.Children)-1 {
			printNode(w, child, childPrefix+"└── ", childPrefix+"    ")
		} else {
			printNode(w, child, childPrefix+"├── ", childPrefix+"│   ")
		}
	}
}

// PrintLocations prints location groups, largest first
func PrintLocations(w io.Writer, groups []model.LocationGroup) {
	bold.Fprintln(w, "Locations:")
	for _, g := range groups {
		cyan.Fprintf(w, "  %-20s", g.Location)
		fmt.Fprintf(w, " %-12s %d\n", g.Country, g.Count)
	}
}

// PrintCycles lists management cycles in red
func PrintCycles(w io.Writer, found []cycles.ManagementCycle) {
	if len(found) == 0 {
		return
	}
	red.Fprintln(w, "MANAGEMENT CYCLES:")
	for _, c := range found {
		if len(c.Members) == 1 {
			yellow.Fprintf(w, "  %s manages themselves\n", c.Members[0])
			continue
		}
		yellow.Fprintf(w, "  %s\n", strings.Join(c.Members, ", "))
	}
	fmt.Fprintln(w)
}

// PrintValidation prints the outcome of a data check. ok reports whether
// the data is usable without caveats.
func PrintValidation(w io.Writer, snap *store.Snapshot) (ok bool) {
	dups := snap.Index.Duplicates()

	bold.Fprintln(w, "Org Directory - Validation")
	bold.Fprintln(w, "==========================")
	fmt.Fprintf(w, "Source: %s", snap.Origin.Name)
	if snap.Origin.Location != "" {
		fmt.Fprintf(w, " (%s)", snap.Origin.Location)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Employees: %d\n\n", snap.Len())

	if len(dups) > 0 {
		red.Fprintln(w, "DUPLICATE NAMES:")
		for _, name := range dups {
			yellow.Fprintf(w, "  %s\n", name)
		}
		fmt.Fprintln(w)
	}
	PrintCycles(w, snap.Cycles)

	missing := unknownManagers(snap)
	if len(missing) > 0 {
		red.Fprintln(w, "UNKNOWN MANAGERS:")
		for _, m := range missing {
			yellow.Fprintf(w, "  %s", m.manager)
			faint.Fprintf(w, " (named by %s)\n", strings.Join(m.reports, ", "))
		}
		fmt.Fprintln(w)
	}

	ok = len(dups) == 0 && len(snap.Cycles) == 0
	if ok {
		green.Fprintln(w, "✓ Directory is consistent")
	} else {
		red.Fprintln(w, "✗ Directory has issues")
	}
	return ok
}

type missingManager struct {
	manager string
	reports []string
}

// unknownManagers finds manager names that match nobody. Those people are
// shown as top level, which is usually a typo in the source sheet.
func unknownManagers(snap *store.Snapshot) []missingManager {
	byManager := make(map[string][]string)
	for _, e := range snap.Employees {
		if e.ManagerName != "" && !snap.Index.Contains(e.ManagerName) {
			byManager[e.ManagerName] = append(byManager[e.ManagerName], e.Name)
		}
	}

	out := make([]missingManager, 0, len(byManager))
	for m, reports := range byManager {
		out = append(out, missingManager{manager: m, reports: reports})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].manager < out[j].manager })
	return out
}
