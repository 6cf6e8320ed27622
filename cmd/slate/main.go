// Package main provides the slate CLI, the operator surface for the
// collaborative writeback system.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mesh-intelligence/slate/pkg/types"
)

func main() {
	// Local overrides (REDIS_URL, webhook tokens) load from .env when
	// present; a missing file is the normal case.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if _, ok := types.AsValidationError(err); ok {
			os.Exit(exitUserError)
		}
		os.Exit(exitSysError)
	}
	os.Exit(exitSuccess)
}
