// Config loading for the slate CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/slate/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Slate configuration

# Application identifier scoping writeback batches and presence.
app_id: slate

# Row identity. With no key dimensions the first three cell values are used.
# key_strategy: concatenate   # concatenate | hash | composite
# key_separator: "|"
# validate_key_uniqueness: false
# key_dimensions:
#   - field: Region
#     is_key: true
#     order: 1

# Editable columns.
# writeback_columns:
#   - name: Notes
#     type: text

# Save policy: manual | auto | batch.
save_mode: manual
# auto_save_delay: 2s
# batch_save_interval: 30s

# Presence channel: memory | redis.
# presence:
#   channel: redis
#   redis_url: redis://localhost:6379/0

# Writeback store: sqlite | webhook.
store:
  kind: sqlite
  # data_dir:
  # write_url:
  # read_url:
`

// loadConfig reads config.yaml from the config directory, creating the
// directory and a default file on first run. A missing config.yaml is not
// an error.
func loadConfig(configDir string) (types.Config, error) {
	var cfg types.Config

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cfg, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault("app_id", "slate")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ensureDefaultConfigFile creates a default config.yaml if none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
