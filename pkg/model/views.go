package model

import "time"

// HierarchyNode is one node of a rendered reporting tree
type HierarchyNode struct {
	Name           string           `json:"name"`
	Position       string           `json:"position"`
	Department     string           `json:"department"`
	Country        string           `json:"country"`
	Location       string           `json:"location"`
	PhotoURL       string           `json:"photo_url"`
	Relationship   string           `json:"relationship"`
	Representative string           `json:"representative"`
	Children       []*HierarchyNode `json:"children"` // Sorted by name, never nil
}

// NewHierarchyNode creates a childless node for an employee
func NewHierarchyNode(e Employee) *HierarchyNode {
	return &HierarchyNode{
		Name:           e.Name,
		Position:       e.Position,
		Department:     e.Department,
		Country:        e.Country,
		Location:       e.Location,
		PhotoURL:       e.Attr(ExtraPhotoURL),
		Relationship:   e.Relationship,
		Representative: e.Representative,
		Children:       []*HierarchyNode{},
	}
}

// Walk visits the node and all its descendants in pre-order
func (n *HierarchyNode) Walk(fn func(node *HierarchyNode, depth int)) {
	n.walk(fn, 0)
}

func (n *HierarchyNode) walk(fn func(*HierarchyNode, int), depth int) {
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Size returns the number of nodes in the subtree rooted at n
func (n *HierarchyNode) Size() int {
	count := 0
	n.Walk(func(*HierarchyNode, int) { count++ })
	return count
}

// LocationPerson is the per-person entry of a location group
type LocationPerson struct {
	Name           string `json:"name"`
	Position       string `json:"position"`
	Department     string `json:"department"`
	Country        string `json:"country"`
	Relationship   string `json:"relationship"`
	Representative string `json:"representative"`
}

// LocationGroup aggregates the people sharing a location
type LocationGroup struct {
	Location string           `json:"location"`
	Count    int              `json:"count"`
	Country  string           `json:"country"` // Taken from the first person of the group
	People   []LocationPerson `json:"people"`
}

// Connection is a stakeholder connection logged by a user
type Connection struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Designation string    `json:"designation,omitempty"`
	Champion    string    `json:"champion,omitempty"` // Representative owning the connection
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
