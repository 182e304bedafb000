package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ritzau/org-directory/pkg/model"
	"github.com/ritzau/org-directory/pkg/store"
)

func init() {
	color.NoColor = true
}

func TestPrintTree(t *testing.T) {
	root := model.NewHierarchyNode(model.Employee{Name: "Ada", Position: "CEO", Location: "London", Relationship: "Direct"})
	ben := model.NewHierarchyNode(model.Employee{Name: "Ben", Position: "CTO", Location: "Paris"})
	cy := model.NewHierarchyNode(model.Employee{Name: "Cy", Position: "Engineer", Location: "Paris"})
	dee := model.NewHierarchyNode(model.Employee{Name: "Dee", Position: "CFO", Location: "Oslo", Relationship: "indirect"})
	ben.Children = append(ben.Children, cy)
	root.Children = append(root.Children, ben, dee)

	var buf bytes.Buffer
	PrintTree(&buf, root)

	want := strings.Join([]string{
		"Ada - CEO, London [direct]",
		"├── Ben - CTO, Paris",
		"│   └── Cy - Engineer, Paris",
		"└── Dee - CFO, Oslo [indirect]",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("PrintTree output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintStats(t *testing.T) {
	stats := store.Stats{
		TotalEmployees:  3,
		DepartmentCount: 2,
		Connections:     store.ConnectionBreakdown{Direct: 1, Indirect: 1, None: 1},
		Representatives: map[string]int{"Mayank": 2, "Lihi": 1},
		Cycles:          1,
		DataSource:      "seed",
		FallbackData:    true,
	}

	var buf bytes.Buffer
	PrintStats(&buf, stats)
	out := buf.String()

	for _, want := range []string{
		"Source: seed (fallback data)",
		"Employees:   3",
		"Direct:   1",
		"⚠ 1 management cycle(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "Lihi") > strings.Index(out, "Mayank") {
		t.Error("Expected representatives sorted by name")
	}
	if strings.Contains(out, "No data issues") {
		t.Error("Did not expect a clean bill with cycles present")
	}
}

func TestPrintValidation(t *testing.T) {
	st := store.New(store.Options{})
	_, err := st.ReplaceSnapshot([]model.Employee{
		{Name: "Ada"},
		{Name: "Ben", ManagerName: "Ada"},
		{Name: "Cy", ManagerName: "Adaa"},
	}, store.Origin{Name: "spreadsheet", Location: "org.xlsx"})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if ok := PrintValidation(&buf, st.Snapshot()); !ok {
		t.Errorf("Expected consistent directory, got:\n%s", buf.String())
	}
	out := buf.String()
	if !strings.Contains(out, "Source: spreadsheet (org.xlsx)") {
		t.Errorf("Missing source line:\n%s", out)
	}
	if !strings.Contains(out, "Adaa (named by Cy)") {
		t.Errorf("Expected unknown manager to be reported:\n%s", out)
	}

	_, err = st.ReplaceSnapshot([]model.Employee{
		{Name: "Ada", ManagerName: "Ben"},
		{Name: "Ben", ManagerName: "Ada"},
		{Name: "Ada", ManagerName: "Ben"},
	}, store.Origin{Name: "spreadsheet"})
	if err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	if ok := PrintValidation(&buf, st.Snapshot()); ok {
		t.Error("Expected issues to be reported")
	}
	out = buf.String()
	if !strings.Contains(out, "DUPLICATE NAMES:") || !strings.Contains(out, "MANAGEMENT CYCLES:") {
		t.Errorf("Expected duplicate and cycle sections:\n%s", out)
	}
	if !strings.Contains(out, "Ada, Ben") {
		t.Errorf("Expected cycle members:\n%s", out)
	}
}
