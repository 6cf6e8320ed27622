package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration directory and a default config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		// PersistentPreRunE already created both; report where.
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized slate configuration in %s\n", configDir)
		if cfg.Store.DataDir != "" {
			fmt.Printf("Writeback data directory: %s\n", cfg.Store.DataDir)
		}
		return nil
	},
}
