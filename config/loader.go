package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadConfig loads configuration with priority: CLI flags > Config file > Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigArgs(os.Args[1:])
}

// LoadConfigArgs is LoadConfig for an explicit argument list.
func LoadConfigArgs(args []string) (*Config, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. Check if -config flag was provided (quick parse to extract it)
	configPath, err := configFlag(args)
	if err != nil {
		return nil, err
	}

	// If no config flag, try to find config file in standard locations
	if configPath == "" {
		configPath = FindConfigFile()
	}

	// Load config file if found
	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		// Merge file config (overwrites defaults)
		cfg = fileCfg
	}

	// 3. Merge CLI flags (highest priority, overwrites everything)
	if err := cfg.MergeFromArgs(args); err != nil {
		return nil, err
	}

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configFlag extracts the -config value from args, in either the "-config path"
// or the "-config=path" form. The file must be YAML.
func configFlag(args []string) (string, error) {
	path, given := "", false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name != "config" {
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag needs an argument: -config")
			}
			i++
			value = args[i]
		}
		path, given = value, true
	}
	if !given {
		return "", nil
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("-config path cannot be empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return path, nil
	default:
		return "", fmt.Errorf("config file %s must be a .yaml or .yml file", path)
	}
}
