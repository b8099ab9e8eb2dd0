package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration
type Config struct {
	Engine          *EngineConfig
	Ingestion       *IngestionConfig
	EmissionFactors *EmissionFactorConfig
	Blockchain      *BlockchainConfig
}

// File names looked up by LoadConfig
const (
	EngineFile    = "engine.defaults.yml"
	IngestionFile = "ingestion.defaults.yml"
	FactorsFile   = "emission_factors.yml"
)

// LoadConfig loads all configuration files present in a directory.
// The emission factor table is always populated, from file or built in.
func LoadConfig(configDir string) (*Config, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}

	config := &Config{}

	// Load engine config
	enginePath := filepath.Join(absDir, EngineFile)
	if _, err := os.Stat(enginePath); err == nil {
		engineCfg, err := LoadEngineConfig(enginePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load engine config: %w", err)
		}
		config.Engine = engineCfg
	}

	// Load trip feeder config
	ingestionPath := filepath.Join(absDir, IngestionFile)
	if _, err := os.Stat(ingestionPath); err == nil {
		ingestionCfg, err := LoadIngestionConfig(ingestionPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ingestion config: %w", err)
		}
		config.Ingestion = ingestionCfg
	}

	// Load emission factors; the engine may point elsewhere
	factorsPath := filepath.Join(absDir, FactorsFile)
	if config.Engine != nil && config.Engine.EmissionFactorsPath != "" {
		factorsPath = config.Engine.EmissionFactorsPath
		if !filepath.IsAbs(factorsPath) {
			factorsPath = filepath.Join(absDir, factorsPath)
		}
	}
	factorsCfg, err := LoadEmissionFactors(factorsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load emission factors: %w", err)
	}
	config.EmissionFactors = factorsCfg

	// Load blockchain config only when anchoring is configured
	if config.Engine != nil && config.Engine.BlockchainClientConfigPath != "" {
		blockchainPath := config.Engine.BlockchainClientConfigPath
		if !filepath.IsAbs(blockchainPath) {
			blockchainPath = filepath.Join(absDir, blockchainPath)
		}
		blockchainCfg, err := LoadBlockchainConfig(blockchainPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load blockchain config: %w", err)
		}
		config.Blockchain = blockchainCfg
	}

	return config, nil
}
