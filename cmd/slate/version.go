package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/pkg/slate"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("slate v" + slate.Version)
	},
}
