// Config loading for the poilink CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/sietch-tools/poilink/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"

	cfgKeyLinkType      = "linking.link_type"
	cfgKeyQuantity      = "linking.default_quantity"
	cfgKeyBatchSize     = "linking.batch_size"
	cfgKeyMaxRetries    = "linking.max_retries"
	cfgKeyRetryDelay    = "linking.retry_delay"
	cfgKeyUndoWindow    = "linking.undo_window"
	cfgKeyMaxSelections = "linking.max_selections"

	defaultBackend = types.BackendSQLite
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Poilink CLI configuration

# Backend selection
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Bulk-linking defaults (optional)
# linking:
#   link_type: found_here
#   default_quantity: 1
#   batch_size: 25
#   max_retries: 3
#   retry_delay: 1s
#   undo_window: 10m
#   max_selections: 1000
`

// loadConfig reads config.yaml from the resolved config directory using Viper.
// It creates the config directory and a default config.yaml on first run.
// A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// buildConfig maps loaded viper values into a types.Config. Unset linking
// values stay zero so the getters substitute the built-in defaults.
func buildConfig(v *viper.Viper) types.Config {
	return types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: v.GetString(cfgKeyDataDir),
		Linking: types.LinkingConfig{
			LinkType:        v.GetString(cfgKeyLinkType),
			DefaultQuantity: v.GetInt(cfgKeyQuantity),
			BatchSize:       v.GetInt(cfgKeyBatchSize),
			MaxRetries:      v.GetInt(cfgKeyMaxRetries),
			RetryDelay:      v.GetDuration(cfgKeyRetryDelay),
			UndoWindow:      v.GetDuration(cfgKeyUndoWindow),
			MaxSelections:   v.GetInt(cfgKeyMaxSelections),
		},
	}
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
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
