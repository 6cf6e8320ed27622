package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <dataset.csv>",
	Short: "Print the dataset with persisted writeback values merged in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ed, err := openEditor(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = ed.Close(ctx) }()

		ds, err := loadDataset(ctx, ed, args[0])
		if err != nil {
			return err
		}

		header := make([]string, 0, len(ds.Columns)+len(cfg.WritebackColumns))
		for _, c := range ds.Columns {
			header = append(header, c.Name)
		}
		for _, wc := range cfg.WritebackColumns {
			header = append(header, wc.Name)
		}

		var rows [][]string
		for i, row := range ds.Rows {
			key, err := ed.Key(i)
			if err != nil {
				return err
			}
			line := make([]string, 0, len(header))
			for j := range ds.Columns {
				line = append(line, row.Text(j))
			}
			for _, wc := range cfg.WritebackColumns {
				line = append(line, fmt.Sprintf("%v", orEmpty(ed.Value(key, wc.Name))))
			}
			rows = append(rows, line)
		}

		if flagJSON {
			return printJSON(struct {
				Columns []string   `json:"columns"`
				Rows    [][]string `json:"rows"`
			}{header, rows})
		}
		printTable(header, rows)
		return nil
	},
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
