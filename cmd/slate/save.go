package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// editsFile is the YAML shape of a staged-edits file: each entry addresses
// a cell by row index or by explicit row key.
type editsFile struct {
	Edits []editEntry `yaml:"edits"`
}

type editEntry struct {
	Row   *int   `yaml:"row,omitempty"`
	Key   string `yaml:"key,omitempty"`
	Field string `yaml:"field"`
	Value any    `yaml:"value"`
}

var saveCmd = &cobra.Command{
	Use:   "save <dataset.csv> <edits.yaml>",
	Short: "Stage edits against a dataset and save them through the pipeline",
	Long: `Load the dataset, merge the persisted baseline, stage every edit from the
edits file, and drain them to the writeback store as one logical write.
Validation failures refuse the whole save; rows whose key no longer resolves
are skipped with a warning.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ed, err := openEditor(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = ed.Close(ctx) }()

		if _, err := loadDataset(ctx, ed, args[0]); err != nil {
			return err
		}

		raw, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read edits file: %w", err)
		}
		var edits editsFile
		if err := yaml.Unmarshal(raw, &edits); err != nil {
			return fmt.Errorf("parse edits file: %w", err)
		}

		for i, e := range edits.Edits {
			switch {
			case e.Key != "":
				ed.EditKey(e.Key, e.Field, e.Value)
			case e.Row != nil:
				if err := ed.Edit(*e.Row, e.Field, e.Value); err != nil {
					return fmt.Errorf("edit %d: %w", i, err)
				}
			default:
				return fmt.Errorf("edit %d: needs row or key", i)
			}
		}

		summary, err := ed.Save(ctx)
		if err != nil {
			if _, ok := types.AsValidationError(err); ok {
				return fmt.Errorf("save refused: %w", err)
			}
			return err
		}

		if flagJSON {
			return printJSON(summary)
		}
		fmt.Printf("Saved %d records", summary.Records)
		if summary.Skipped > 0 {
			fmt.Printf(" (%d rows skipped)", summary.Skipped)
		}
		if summary.File != "" {
			fmt.Printf(" to %s", summary.File)
		}
		fmt.Println()
		return nil
	},
}
