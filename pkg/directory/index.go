// Package directory indexes a flat employee list by name and by manager.
package directory

import (
	"sort"

	"github.com/ritzau/org-directory/pkg/model"
)

// Index is an immutable lookup structure over one snapshot of records.
// Duplicate names resolve last-write-wins.
type Index struct {
	records    []model.Employee    // Winning records in snapshot order
	byName     map[string]int      // Name -> position in records
	byKey      map[string]int      // Normalized name -> first position in records
	children   map[string][]string // Manager name -> direct report names
	duplicates []string
}

// NewIndex builds the index in one pass over records. A record only becomes
// a child of its manager when the manager resolves within the same input.
func NewIndex(records []model.Employee) *Index {
	last := make(map[string]int, len(records))
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		last[rec.Name] = i
		seen[rec.Name]++
	}

	ix := &Index{
		records:  make([]model.Employee, 0, len(last)),
		byName:   make(map[string]int, len(last)),
		byKey:    make(map[string]int, len(last)),
		children: make(map[string][]string),
	}

	for i, rec := range records {
		if last[rec.Name] != i {
			continue
		}
		pos := len(ix.records)
		ix.records = append(ix.records, rec)
		ix.byName[rec.Name] = pos
		key := model.NormalizeName(rec.Name)
		if _, exists := ix.byKey[key]; !exists {
			ix.byKey[key] = pos
		}
	}

	for _, rec := range ix.records {
		if rec.ManagerName == "" {
			continue
		}
		if _, ok := ix.byName[rec.ManagerName]; ok {
			ix.children[rec.ManagerName] = append(ix.children[rec.ManagerName], rec.Name)
		}
	}

	for name, count := range seen {
		if count > 1 {
			ix.duplicates = append(ix.duplicates, name)
		}
	}
	sort.Strings(ix.duplicates)

	return ix
}

// Len returns the number of distinct names
func (ix *Index) Len() int {
	return len(ix.records)
}

// Records returns the winning records in snapshot order
func (ix *Index) Records() []model.Employee {
	out := make([]model.Employee, len(ix.records))
	copy(out, ix.records)
	return out
}

// Names returns all distinct names in snapshot order
func (ix *Index) Names() []string {
	names := make([]string, len(ix.records))
	for i, rec := range ix.records {
		names[i] = rec.Name
	}
	return names
}

// Lookup finds a record by exact name
func (ix *Index) Lookup(name string) (model.Employee, bool) {
	pos, ok := ix.byName[name]
	if !ok {
		return model.Employee{}, false
	}
	return ix.records[pos], true
}

// Contains reports whether name is present
func (ix *Index) Contains(name string) bool {
	_, ok := ix.byName[name]
	return ok
}

// Resolve finds a record by case-insensitive, whitespace-trimmed name
func (ix *Index) Resolve(query string) (model.Employee, bool) {
	if rec, ok := ix.Lookup(query); ok {
		return rec, true
	}
	pos, ok := ix.byKey[model.NormalizeName(query)]
	if !ok {
		return model.Employee{}, false
	}
	return ix.records[pos], true
}

// DirectReports returns the names reporting directly to manager, in snapshot order
func (ix *Index) DirectReports(manager string) []string {
	return ix.children[manager]
}

// IsRoot reports whether the record's manager is empty or unresolved
func (ix *Index) IsRoot(rec model.Employee) bool {
	return rec.ManagerName == "" || !ix.Contains(rec.ManagerName)
}

// Roots returns the names of all roots sorted by name
func (ix *Index) Roots() []string {
	var roots []string
	for _, rec := range ix.records {
		if ix.IsRoot(rec) {
			roots = append(roots, rec.Name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Duplicates returns the names that appeared more than once in the input
func (ix *Index) Duplicates() []string {
	return ix.duplicates
}
