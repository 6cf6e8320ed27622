// Shared helpers for slate subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/slate/internal/grid"
	"github.com/mesh-intelligence/slate/pkg/slate"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// openEditor builds a live editor from the resolved configuration. The
// caller must Close it.
func openEditor(ctx context.Context) (*slate.Editor, error) {
	ed, err := slate.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open editor: %w", err)
	}
	return ed, nil
}

// loadDataset reads the CSV dataset named by the flag and installs it in
// the editor, merging the persisted baseline.
func loadDataset(ctx context.Context, ed *slate.Editor, path string) (*types.Dataset, error) {
	ds, err := grid.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ed.Load(ctx, ds); err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	return ds, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes rows as aligned columns to stdout.
func printTable(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(header)
	for _, row := range rows {
		printRow(row)
	}
}
