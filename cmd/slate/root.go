// Root command and global flag handling.
package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/paths"
	"github.com/mesh-intelligence/slate/pkg/slate"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagLogLevel  string
	flagJSON      bool
)

// cfg is the resolved configuration, loaded by PersistentPreRunE so every
// subcommand can use it.
var cfg types.Config

var rootCmd = &cobra.Command{
	Use:     "slate",
	Short:   "Slate is a collaborative writeback editor for shared tabular data",
	Version: slate.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}

		loaded, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		cfg = loaded

		if flagDataDir != "" {
			cfg.Store.DataDir = flagDataDir
		}
		if cfg.Store.Kind == types.StoreSQLite && cfg.Store.DataDir == "" {
			dataDir, err := paths.ResolveDataDir(flagDataDir, "")
			if err != nil {
				return err
			}
			cfg.Store.DataDir = dataDir
		}
		if cfg.Presence.RedisURL == "" {
			cfg.Presence.RedisURL = os.Getenv("REDIS_URL")
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "writeback data directory (default: $(CWD)/.slate-db)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogger installs a tinted slog handler on stderr, plain when stderr is
// not a terminal.
func setupLogger() {
	level := slog.LevelInfo
	switch flagLogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
}
