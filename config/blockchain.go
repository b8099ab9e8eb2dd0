package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// BlockchainConfig stores common configuration for the chain that anchors sealed roots
type BlockchainConfig struct {
	// --- Blockchain Type Selection ---
	BlockchainType string `yaml:"blockchain_type"` // "chainmaker"

	// --- Common Behavior Configuration ---
	RetryLimit     int `yaml:"retry_limit"`
	RetryInterval  int `yaml:"retry_interval"` // milliseconds
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// ConfigDir is the directory the file was loaded from; chain-specific
	// files are resolved relative to it.
	ConfigDir string `yaml:"-"`

	// --- Chain-specific Configuration ---
	// This will be loaded separately based on blockchain type
	ChainSpecific any `yaml:"-"`
}

// SetDefaults sets reasonable default values for the common blockchain settings
func (c *BlockchainConfig) SetDefaults() {
	if c.RetryLimit <= 0 {
		c.RetryLimit = 20
		fmt.Printf("Warning: retry_limit not set or invalid, defaulting to %d\n", c.RetryLimit)
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 500
		fmt.Printf("Warning: retry_interval not set or invalid, defaulting to %d\n", c.RetryInterval)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
		fmt.Printf("Warning: timeout_seconds not set or invalid, defaulting to %d\n", c.TimeoutSeconds)
	}
}

// LoadBlockchainConfig loads blockchain configuration from the specified YAML file path
func LoadBlockchainConfig(path string) (*BlockchainConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config file: %w", err)
	}

	fmt.Printf("Loading blockchain configuration from '%s'...\n", absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", absPath, err)
	}

	var cfg BlockchainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}
	cfg.SetDefaults()
	cfg.ConfigDir = filepath.Dir(absPath)

	fmt.Println("Blockchain configuration loaded successfully.")
	return &cfg, nil
}
