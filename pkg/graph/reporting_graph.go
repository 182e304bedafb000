package graph

import (
	"sort"

	"github.com/ritzau/org-directory/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// EmployeeNode represents a person in the reporting graph
type EmployeeNode struct {
	Name string
}

// ReportingGraph is the manager -> direct report graph of a directory
type ReportingGraph struct {
	graph       *simple.DirectedGraph
	nodes       map[string]*EmployeeNode // Name -> node
	ids         map[string]int64         // Name -> graph ID
	names       map[int64]string         // Graph ID -> name
	selfManaged map[string]bool          // gonum rejects self edges, so they live here
	nextID      int64
}

// NewReportingGraph creates an empty reporting graph
func NewReportingGraph() *ReportingGraph {
	return &ReportingGraph{
		graph:       simple.NewDirectedGraph(),
		nodes:       make(map[string]*EmployeeNode),
		ids:         make(map[string]int64),
		names:       make(map[int64]string),
		selfManaged: make(map[string]bool),
	}
}

// AddEmployee adds a person to the graph
func (rg *ReportingGraph) AddEmployee(name string) {
	if _, exists := rg.nodes[name]; exists {
		return
	}

	rg.nodes[name] = &EmployeeNode{Name: name}
	rg.ids[name] = rg.nextID
	rg.names[rg.nextID] = name
	rg.graph.AddNode(simple.Node(rg.nextID))
	rg.nextID++
}

// AddReport adds an edge from manager to report, creating missing nodes
func (rg *ReportingGraph) AddReport(manager, report string) {
	rg.AddEmployee(manager)
	rg.AddEmployee(report)

	if manager == report {
		rg.selfManaged[manager] = true
		return
	}

	from, to := rg.ids[manager], rg.ids[report]
	if !rg.graph.HasEdgeFromTo(from, to) {
		rg.graph.SetEdge(rg.graph.NewEdge(rg.graph.Node(from), rg.graph.Node(to)))
	}
}

// GetNode returns a node by name
func (rg *ReportingGraph) GetNode(name string) (*EmployeeNode, bool) {
	node, exists := rg.nodes[name]
	return node, exists
}

// GetNodeByID returns a node by its graph ID
func (rg *ReportingGraph) GetNodeByID(id int64) *EmployeeNode {
	name, ok := rg.names[id]
	if !ok {
		return nil
	}
	return rg.nodes[name]
}

// Graph returns the underlying directed graph
func (rg *ReportingGraph) Graph() *simple.DirectedGraph {
	return rg.graph
}

// Nodes returns all nodes sorted by name
func (rg *ReportingGraph) Nodes() []*EmployeeNode {
	nodes := make([]*EmployeeNode, 0, len(rg.nodes))
	for _, node := range rg.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

// Edges returns all reporting lines as [manager, report] pairs, self edges included
func (rg *ReportingGraph) Edges() [][2]string {
	var edges [][2]string

	iter := rg.graph.Edges()
	for iter.Next() {
		edge := iter.Edge()
		edges = append(edges, [2]string{rg.names[edge.From().ID()], rg.names[edge.To().ID()]})
	}
	for name := range rg.selfManaged {
		edges = append(edges, [2]string{name, name})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// Reports returns the direct reports of manager sorted by name
func (rg *ReportingGraph) Reports(manager string) []string {
	id, exists := rg.ids[manager]
	if !exists {
		return nil
	}

	var reports []string
	iter := rg.graph.From(id)
	for iter.Next() {
		reports = append(reports, rg.names[iter.Node().ID()])
	}
	if rg.selfManaged[manager] {
		reports = append(reports, manager)
	}
	sort.Strings(reports)
	return reports
}

// SelfManaged returns the people recorded as their own manager, sorted
func (rg *ReportingGraph) SelfManaged() []string {
	names := make([]string, 0, len(rg.selfManaged))
	for name := range rg.selfManaged {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildReportingGraph builds the graph of a snapshot. Duplicate names resolve
// last-write-wins; managers that are not in the snapshot add no edge.
func BuildReportingGraph(records []model.Employee) *ReportingGraph {
	rg := NewReportingGraph()

	latest := make(map[string]model.Employee, len(records))
	for _, rec := range records {
		latest[rec.Name] = rec
		rg.AddEmployee(rec.Name)
	}

	for _, rec := range records {
		if latest[rec.Name].ManagerName != rec.ManagerName {
			continue
		}
		if _, ok := latest[rec.ManagerName]; ok && rec.ManagerName != "" {
			rg.AddReport(rec.ManagerName, rec.Name)
		}
	}

	return rg
}
