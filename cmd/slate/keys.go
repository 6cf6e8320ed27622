package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/grid"
	"github.com/mesh-intelligence/slate/internal/rowkey"
)

var keysCmd = &cobra.Command{
	Use:   "keys <dataset.csv>",
	Short: "Resolve and print the row identities of a dataset",
	Long: `Resolve the row key of every row in the dataset using the configured
key dimensions and strategy, and report key values shared by multiple rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := grid.ReadFile(args[0])
		if err != nil {
			return err
		}

		res := rowkey.NewResolver(cfg, ds.Columns)

		if flagJSON {
			type rowIdentity struct {
				Index int    `json:"index"`
				Key   string `json:"key"`
			}
			out := struct {
				Fields     []string      `json:"key_fields"`
				Rows       []rowIdentity `json:"rows"`
				Duplicates []string      `json:"duplicates,omitempty"`
			}{Fields: res.Fields(), Duplicates: res.Duplicates(ds)}
			for _, row := range ds.Rows {
				out.Rows = append(out.Rows, rowIdentity{Index: row.Index, Key: res.Key(row)})
			}
			return printJSON(out)
		}

		rows := make([][]string, len(ds.Rows))
		for i, row := range ds.Rows {
			rows[i] = []string{res.Key(row)}
		}
		printTable([]string{"ROW KEY"}, rows)

		for _, dup := range res.Duplicates(ds) {
			cmd.PrintErrf("warning: key %q is shared by multiple rows\n", dup)
		}
		return nil
	},
}
