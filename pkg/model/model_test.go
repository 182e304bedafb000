package model

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	e := Employee{
		Name:        "  Ada Lovelace ",
		Department:  "nan",
		ManagerName: " Charles Babbage",
		Extra:       map[string]string{"phone": " ", ExtraLDAP: "ada"},
	}

	got := e.Normalize()

	if got.Name != "Ada Lovelace" {
		t.Errorf("Expected trimmed name, got %q", got.Name)
	}
	if got.ManagerName != "Charles Babbage" {
		t.Errorf("Expected trimmed manager, got %q", got.ManagerName)
	}
	for field, value := range map[string]string{
		"position":   got.Position,
		"department": got.Department,
		"country":    got.Country,
		"location":   got.Location,
	} {
		if value != UnknownValue {
			t.Errorf("Expected %s to default to %q, got %q", field, UnknownValue, value)
		}
	}
	if got.Relationship != RelationshipNone {
		t.Errorf("Expected relationship %q, got %q", RelationshipNone, got.Relationship)
	}
	if got.Representative != NoRepresentative {
		t.Errorf("Expected representative %q, got %q", NoRepresentative, got.Representative)
	}
	if _, ok := got.Extra["phone"]; ok {
		t.Error("Expected blank extra attribute to be dropped")
	}
	if got.Attr(ExtraLDAP) != "ada" {
		t.Errorf("Expected ldap to survive, got %q", got.Attr(ExtraLDAP))
	}
}

func TestNormalizeDoesNotAliasExtra(t *testing.T) {
	e := Employee{Name: "A", Extra: map[string]string{"k": "v"}}
	got := e.Normalize()
	got.Extra["k"] = "changed"

	if e.Extra["k"] != "v" {
		t.Error("Normalize must copy the extra map")
	}
}

func TestNormalizeName(t *testing.T) {
	if NormalizeName("  Sarah WILLIAMS ") != "sarah williams" {
		t.Errorf("Unexpected normalized name %q", NormalizeName("  Sarah WILLIAMS "))
	}
}

func TestHierarchyNodeWalk(t *testing.T) {
	root := NewHierarchyNode(Employee{Name: "A"})
	b := NewHierarchyNode(Employee{Name: "B"})
	c := NewHierarchyNode(Employee{Name: "C"})
	b.Children = append(b.Children, c)
	root.Children = append(root.Children, b)

	var visited []string
	var depths []int
	root.Walk(func(n *HierarchyNode, depth int) {
		visited = append(visited, n.Name)
		depths = append(depths, depth)
	})

	if len(visited) != 3 || visited[0] != "A" || visited[1] != "B" || visited[2] != "C" {
		t.Errorf("Unexpected walk order %v", visited)
	}
	if depths[2] != 2 {
		t.Errorf("Expected depth 2 for C, got %d", depths[2])
	}
	if root.Size() != 3 {
		t.Errorf("Expected size 3, got %d", root.Size())
	}
}
