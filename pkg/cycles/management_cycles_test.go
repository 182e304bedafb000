package cycles

import (
	"testing"

	"github.com/ritzau/org-directory/pkg/graph"
	"github.com/ritzau/org-directory/pkg/model"
)

func TestFindManagementCycles_NoCycles(t *testing.T) {
	rg := graph.NewReportingGraph()

	// A -> B -> C
	rg.AddReport("A", "B")
	rg.AddReport("B", "C")

	cycles := FindManagementCycles(rg)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(cycles))
	}
}

func TestFindManagementCycles_SimpleCycle(t *testing.T) {
	rg := graph.NewReportingGraph()

	// A -> B -> A
	rg.AddReport("A", "B")
	rg.AddReport("B", "A")

	cycles := FindManagementCycles(rg)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}
	if got := cycles[0].Members; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Expected cycle [A B], got %v", got)
	}
}

func TestFindManagementCycles_ThreeNodeCycle(t *testing.T) {
	rg := graph.NewReportingGraph()

	// C -> A -> B -> C, plus a tail that is not part of the loop
	rg.AddReport("C", "A")
	rg.AddReport("A", "B")
	rg.AddReport("B", "C")
	rg.AddReport("B", "Tail")

	cycles := FindManagementCycles(rg)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}
	if len(cycles[0].Members) != 3 {
		t.Errorf("Expected cycle of length 3, got %v", cycles[0].Members)
	}
	if Involved(cycles)["Tail"] {
		t.Error("Tail must not be reported as part of the cycle")
	}
}

func TestFindManagementCycles_SelfManaged(t *testing.T) {
	rg := graph.BuildReportingGraph([]model.Employee{
		{Name: "Solo", ManagerName: "Solo"},
		{Name: "A", ManagerName: "B"},
		{Name: "B", ManagerName: "A"},
	})

	cycles := FindManagementCycles(rg)

	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles, but found %d: %v", len(cycles), cycles)
	}
	if cycles[0].Members[0] != "A" {
		t.Errorf("Expected cycles ordered by first member, got %v", cycles)
	}
	if len(cycles[1].Members) != 1 || cycles[1].Members[0] != "Solo" {
		t.Errorf("Expected self-managed cycle for Solo, got %v", cycles[1])
	}
}

func TestFindManagementCycles_MultipleCycles(t *testing.T) {
	rg := graph.NewReportingGraph()

	rg.AddReport("X", "Y")
	rg.AddReport("Y", "X")
	rg.AddReport("P", "Q")
	rg.AddReport("Q", "P")

	cycles := FindManagementCycles(rg)

	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles, but found %d", len(cycles))
	}
	if cycles[0].Members[0] != "P" || cycles[1].Members[0] != "X" {
		t.Errorf("Unexpected cycle order %v", cycles)
	}
}
