package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the live sessions in this editing space",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ed, err := openEditor(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = ed.Close(ctx) }()

		sessions, err := ed.Sessions(ctx)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(sessions)
		}

		rows := make([][]string, len(sessions))
		for i, s := range sessions {
			rows[i] = []string{
				s.User,
				s.Status,
				s.EditingRow,
				strings.Join(s.EditingFields, ","),
				s.LastActivity.Format(time.TimeOnly),
			}
		}
		printTable([]string{"USER", "STATUS", "EDITING", "FIELDS", "LAST ACTIVITY"}, rows)
		return nil
	},
}
