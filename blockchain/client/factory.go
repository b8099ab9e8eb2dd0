package blockchain

import (
	"fmt"
	"log"
	"path/filepath"

	"tripledger/blockchain/client/chainmaker"
	"tripledger/config"
)

// BlockchainType represents the type of blockchain client
type BlockchainType string

const (
	ChainMaker BlockchainType = "chainmaker"
	// Mock anchors in memory; for demos and tests without a chain
	Mock BlockchainType = "mock"
)

// LoadChainSpecificConfig loads chain-specific configuration based on blockchain type
func LoadChainSpecificConfig(blockchainType string, configDir string) (any, error) {
	switch BlockchainType(blockchainType) {
	case ChainMaker:
		chainmakerConfigPath := filepath.Join(configDir, "clients", "chainmaker.yml")
		return chainmaker.LoadChainMakerConfig(chainmakerConfigPath)
	case "":
		// Default to ChainMaker if not specified
		chainmakerConfigPath := filepath.Join(configDir, "clients", "chainmaker.yml")
		return chainmaker.LoadChainMakerConfig(chainmakerConfigPath)
	case Mock:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported blockchain type: %s", blockchainType)
	}
}

// NewAnchorClient creates an anchor client based on the configuration.
// cfg.ChainSpecific is loaded from cfg.ConfigDir when still empty.
func NewAnchorClient(cfg *config.BlockchainConfig, logger *log.Logger) (AnchorClient, error) {
	if cfg.ChainSpecific == nil && BlockchainType(cfg.BlockchainType) != Mock {
		chainSpecificCfg, err := LoadChainSpecificConfig(cfg.BlockchainType, cfg.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load chain-specific config: %w", err)
		}
		cfg.ChainSpecific = chainSpecificCfg
	}

	switch BlockchainType(cfg.BlockchainType) {
	case ChainMaker:
		return chainmaker.NewChainMakerClient(cfg, logger)
	case "":
		// Default to ChainMaker if not specified
		return chainmaker.NewChainMakerClient(cfg, logger)
	case Mock:
		logger.Println("Using in-memory mock anchor client")
		return NewMockAnchorClient(), nil
	default:
		return nil, fmt.Errorf("unsupported blockchain type: %s", cfg.BlockchainType)
	}
}

// NewAnchorClientFromFile creates an anchor client from configuration files
func NewAnchorClientFromFile(configPath string, logger *log.Logger) (AnchorClient, error) {
	// Load common configuration; ConfigDir is set by the loader
	cfg, err := config.LoadBlockchainConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load common config from file '%s': %w", configPath, err)
	}
	return NewAnchorClient(cfg, logger)
}
