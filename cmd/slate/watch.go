package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/pkg/types"
)

var flagWatchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Join the presence channel and report conflicts until interrupted",
	Long: `Register a session on the shared presence channel and poll the peer set,
printing every conflict change. The session keeps heartbeating while watch
runs and removes itself on Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		defer stop()

		ed, err := openEditor(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = ed.Close(cmd.Context()) }()

		fmt.Printf("Watching as %s (Ctrl-C to leave)\n", ed.User())

		ticker := time.NewTicker(flagWatchInterval)
		defer ticker.Stop()

		last := ""
		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nLeaving")
				return nil
			case <-ticker.C:
				conflicts, err := ed.Conflicts(ctx)
				if err != nil {
					cmd.PrintErrf("read presence: %v\n", err)
					continue
				}
				state := describeConflicts(conflicts)
				if state != last {
					fmt.Printf("[%s] %s\n", time.Now().Format(time.TimeOnly), state)
					last = state
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 5*time.Second, "poll interval")
}

// describeConflicts renders a conflict set as one comparable line.
func describeConflicts(conflicts []types.Conflict) string {
	if len(conflicts) == 0 {
		return "no conflicts"
	}
	parts := make([]string, len(conflicts))
	for i, c := range conflicts {
		parts[i] = fmt.Sprintf("%s edited by %s", c.RowKey, strings.Join(c.Users, " and "))
	}
	return strings.Join(parts, "; ")
}
