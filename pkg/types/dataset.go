package types

// Column kind constants. The engine-provided grid distinguishes dimension-like
// columns from computed ones; Slate only reads the distinction.
const (
	ColumnCategorical = "categorical"
	ColumnAggregated  = "aggregated"
)

// Cell is one value of a data row as supplied by the source grid.
type Cell struct {
	// Text is the display text. Row identity is derived from display
	// texts only.
	Text string `json:"text"`

	// Number is the numeric value, when the cell has one.
	Number *float64 `json:"number,omitempty"`

	// ElemID is the engine-internal value identifier, when known.
	ElemID *int `json:"elem_id,omitempty"`
}

// Column describes one column of the source dataset.
type Column struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Row is an ordered sequence of cells plus its positional index within the
// current result set. Rows are produced by the source and are immutable
// within one load cycle.
type Row struct {
	Index int    `json:"index"`
	Cells []Cell `json:"cells"`
}

// Text returns the display text of the cell at position i, or the empty
// string when the row has no such cell. Missing cells are not an error.
func (r Row) Text(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i].Text
}

// Dataset is one load cycle's worth of source data: the column schema and
// the rows in result-set order.
type Dataset struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1 when the
// dataset has no column with that name.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
