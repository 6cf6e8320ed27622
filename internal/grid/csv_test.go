package grid

import (
	"strings"
	"testing"

	"github.com/mesh-intelligence/slate/pkg/types"
)

func TestReadInfersColumnKinds(t *testing.T) {
	csv := `Region,Product,Sales,Notes
East,Widget,100.5,checked
West,Gadget,200,
South,Gizmo,,urgent
`
	ds, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}

	wantKinds := map[string]string{
		"Region":  types.ColumnCategorical,
		"Product": types.ColumnCategorical,
		"Sales":   types.ColumnAggregated, // all non-empty cells numeric
		"Notes":   types.ColumnCategorical,
	}
	for _, c := range ds.Columns {
		if c.Kind != wantKinds[c.Name] {
			t.Errorf("column %s kind = %s, want %s", c.Name, c.Kind, wantKinds[c.Name])
		}
	}

	if len(ds.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(ds.Rows))
	}
	if ds.Rows[0].Index != 0 || ds.Rows[2].Index != 2 {
		t.Error("row indices do not follow result-set order")
	}

	sales := ds.Rows[0].Cells[2]
	if sales.Number == nil || *sales.Number != 100.5 {
		t.Errorf("numeric cell not populated: %+v", sales)
	}
	if ds.Rows[2].Cells[2].Number != nil {
		t.Error("empty cell got a numeric value")
	}
}

func TestReadRaggedRows(t *testing.T) {
	ds, err := Read(strings.NewReader("A,B,C\nx\n"))
	if err != nil {
		t.Fatal(err)
	}
	row := ds.Rows[0]
	if len(row.Cells) != 3 {
		t.Fatalf("cells = %d, want 3 (padded)", len(row.Cells))
	}
	if row.Text(2) != "" {
		t.Errorf("missing cell = %q, want empty", row.Text(2))
	}
}

func TestReadEmptyInput(t *testing.T) {
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Error("Read of empty input should fail")
	}
}
