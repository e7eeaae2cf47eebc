// Package config layers persisted defaults, a project config file, and
// environment variables into a single viper instance. Grounded on the
// teacher's internal/config/config.go (search-path walk, SetEnvPrefix,
// SetEnvKeyReplacer); trimmed to the settings SPEC_FULL.md actually names
// (database path, lease duration, recency weight, sync watermarks) rather
// than the teacher's much larger beads-specific key set.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Call once at
// startup before any Get* call.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := false

	// 1. Walk up from CWD looking for .tx/config.yaml, so subcommands work
	// from any subdirectory of the project.
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, ".tx", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}

	// 2. User config directory (~/.config/tx/config.yaml).
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "tx", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// Environment variables (TX_*) take precedence over the config file.
	v.SetEnvPrefix("TX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("json", false)
	v.SetDefault("db", "")
	v.SetDefault("jsonl-path", "tasks.jsonl")

	// spec.md §6 persisted-configuration table.
	v.SetDefault("recency-weight", 0.1)
	v.SetDefault("lease-duration-minutes", 30)
	v.SetDefault("auto-sync", false)

	// Retrieval-pipeline tunables (spec.md §4.5).
	v.SetDefault("retrieval.limit", 10)
	v.SetDefault("retrieval.min-score", 0.1)
	v.SetDefault("retrieval.enable-graph-expansion", false)
	v.SetDefault("retrieval.enable-rerank", false)
	v.SetDefault("retrieval.enable-mmr", false)
	v.SetDefault("retrieval.rerank-weight", 0.3)
	v.SetDefault("retrieval.mmr-lambda", 0.7)
	v.SetDefault("retrieval.graph-depth", 2)
	v.SetDefault("retrieval.graph-decay-factor", 0.5)
	v.SetDefault("retrieval.graph-max-nodes", 20)

	// External-service configuration.
	v.SetDefault("anthropic-api-key", "")
	v.SetDefault("ollama-model", "nomic-embed-text")

	// Reaper tunables (spec.md §3/§5).
	v.SetDefault("reaper.stale-after", "5m")

	// Hook installer defaults (spec.md §6).
	v.SetDefault("hook.file-threshold", 10)
	v.SetDefault("hook.high-value-files", []string{})

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read config file: %w", err)
		}
	}
	return nil
}

func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetFloat64(key string) float64 {
	if v == nil {
		return 0
	}
	return v.GetFloat64(key)
}

func GetStringSlice(key string) []string {
	if v == nil {
		return nil
	}
	return v.GetStringSlice(key)
}

func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// ConfigFileUsed returns the path actually loaded, or "" if none was found.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}
