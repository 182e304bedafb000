// Package hierarchy reconstructs reporting trees from flat manager references.
package hierarchy

import (
	"sort"

	"github.com/ritzau/org-directory/pkg/directory"
	"github.com/ritzau/org-directory/pkg/model"
)

// DescendantsOf returns everyone reporting to name, directly or transitively,
// in depth-first pre-order. name itself is excluded. A revisit means the
// subtree loops, which is reported as a *CycleError.
func DescendantsOf(ix *directory.Index, name string) ([]model.Employee, error) {
	if !ix.Contains(name) {
		return nil, &NotFoundError{Name: name}
	}

	result := make([]model.Employee, 0)
	visited := map[string]bool{name: true}
	path := []string{name}

	var visit func(manager string) error
	visit = func(manager string) error {
		for _, report := range ix.DirectReports(manager) {
			if visited[report] {
				return &CycleError{Names: append(append([]string{}, path...), report)}
			}
			visited[report] = true

			rec, _ := ix.Lookup(report)
			result = append(result, rec)

			path = append(path, report)
			if err := visit(report); err != nil {
				return err
			}
			path = path[:len(path)-1]
		}
		return nil
	}

	if err := visit(name); err != nil {
		return nil, err
	}
	return result, nil
}

// BuildTree renders the subtree rooted at rootName out of records. Children
// are sorted by name so the output is deterministic.
func BuildTree(records []model.Employee, rootName string) (*model.HierarchyNode, error) {
	ix := directory.NewIndex(records)
	if !ix.Contains(rootName) {
		return nil, &NotFoundError{Name: rootName}
	}
	b := newTreeBuilder(ix)
	return b.build(rootName)
}

// BuildForest renders every record as part of exactly one tree. Roots are
// records whose manager is empty or not present in records, sorted by name.
// Records that no root reaches sit on a manager cycle.
func BuildForest(records []model.Employee) ([]*model.HierarchyNode, error) {
	ix := directory.NewIndex(records)
	b := newTreeBuilder(ix)

	forest := make([]*model.HierarchyNode, 0)
	for _, root := range ix.Roots() {
		node, err := b.build(root)
		if err != nil {
			return nil, err
		}
		forest = append(forest, node)
	}

	if len(b.visited) < ix.Len() {
		var stranded []string
		for _, name := range ix.Names() {
			if !b.visited[name] {
				stranded = append(stranded, name)
			}
		}
		sort.Strings(stranded)
		return nil, &CycleError{Names: stranded}
	}

	return forest, nil
}

type treeBuilder struct {
	ix      *directory.Index
	visited map[string]bool
}

func newTreeBuilder(ix *directory.Index) *treeBuilder {
	return &treeBuilder{ix: ix, visited: make(map[string]bool)}
}

func (b *treeBuilder) build(name string) (*model.HierarchyNode, error) {
	if b.visited[name] {
		return nil, &CycleError{Names: []string{name}}
	}
	b.visited[name] = true

	rec, _ := b.ix.Lookup(name)
	node := model.NewHierarchyNode(rec)

	reports := append([]string{}, b.ix.DirectReports(name)...)
	sort.Strings(reports)

	for _, report := range reports {
		// Unresolvable names are skipped
		if !b.ix.Contains(report) {
			continue
		}
		child, err := b.build(report)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}
