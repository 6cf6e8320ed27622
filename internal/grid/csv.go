// Package grid ingests tabular source data for the CLI.
//
// The library proper receives datasets from an engine-provided grid; the CLI
// stands in for that engine by reading CSV files. The header row names the
// columns; a column whose every non-empty cell parses as a number is treated
// as aggregated, everything else as categorical.
package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// ReadFile loads a CSV file into a dataset.
func ReadFile(path string) (*types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV into a dataset. The first row is the header; rows may be
// ragged, missing cells read as empty.
func Read(r io.Reader) (*types.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("dataset has no header row")
	}

	header := lines[0]
	data := lines[1:]

	ds := &types.Dataset{Columns: make([]types.Column, len(header))}
	for i, name := range header {
		kind := types.ColumnCategorical
		if isNumericColumn(data, i) {
			kind = types.ColumnAggregated
		}
		ds.Columns[i] = types.Column{Name: name, Kind: kind}
	}

	for idx, line := range data {
		row := types.Row{Index: idx, Cells: make([]types.Cell, len(header))}
		for i := range header {
			var text string
			if i < len(line) {
				text = line[i]
			}
			cell := types.Cell{Text: text}
			if text != "" {
				if n, err := strconv.ParseFloat(text, 64); err == nil {
					cell.Number = &n
				}
			}
			row.Cells[i] = cell
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// isNumericColumn reports whether every non-empty cell of column i parses as
// a number, with at least one such cell present.
func isNumericColumn(data [][]string, i int) bool {
	seen := false
	for _, line := range data {
		if i >= len(line) || line[i] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(line[i], 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}
