package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Report rows currently edited by more than one user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ed, err := openEditor(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = ed.Close(ctx) }()

		conflicts, err := ed.Conflicts(ctx)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(conflicts)
		}
		if len(conflicts) == 0 {
			fmt.Println("No conflicts")
			return nil
		}

		rows := make([][]string, len(conflicts))
		for i, c := range conflicts {
			rows[i] = []string{
				c.RowKey,
				strings.Join(c.Users, ","),
				strings.Join(c.Fields, ","),
			}
		}
		printTable([]string{"ROW KEY", "USERS", "FIELDS"}, rows)
		return nil
	},
}
