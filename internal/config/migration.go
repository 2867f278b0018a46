package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MigrationResult describes an upgrade of an older config file.
type MigrationResult struct {
	FromVersion int
	ToVersion   int
	Backup      string
	Changes     []string
}

// MigrateConfig upgrades cfg to the current version, backing up the file at
// configPath first. It returns nil when nothing had to change.
//
// Files written before versioning decode with Version 0; their fields
// already match version 1, so only the stamp is added.
func MigrateConfig(cfg *Config, configPath string) (*MigrationResult, error) {
	if cfg.Version >= Version {
		return nil, nil
	}
	if cfg.Version < 0 {
		return nil, fmt.Errorf("invalid config version %d", cfg.Version)
	}

	result := &MigrationResult{FromVersion: cfg.Version, ToVersion: Version}
	if configPath != "" {
		backup, err := backupConfig(configPath)
		if err != nil {
			return nil, err
		}
		result.Backup = backup
	}

	cfg.Version = Version
	result.Changes = append(result.Changes, fmt.Sprintf("set version to %d", Version))
	return result, nil
}

// backupConfig copies the config file next to itself with a timestamp.
func backupConfig(configPath string) (string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}

	backupPath := configPath + ".backup-" + time.Now().Format("20060102-150405")
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return backupPath, nil
}

// Encode serializes cfg in the given format: "toml", "json" or "yaml".
func Encode(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	case "", "toml":
		var buf bytes.Buffer
		buf.WriteString("# keycast configuration\n\n")
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
}

// SaveConfig writes cfg to path in the format named by its extension,
// defaulting to TOML.
func SaveConfig(cfg *Config, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch format {
	case "json", "yaml", "yml":
	default:
		format = "toml"
	}

	data, err := Encode(cfg, format)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
