package chainmaker

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// NodeConfig stores detailed configuration for a single ChainMaker node
type NodeConfig struct {
	Address     string   `yaml:"address"`
	ConnCount   int      `yaml:"conn_count"`
	UseTLS      bool     `yaml:"use_tls"`
	TLSHostName string   `yaml:"tls_host_name"`
	CaPaths     []string `yaml:"ca_paths"`
}

// ChainMakerConfig stores ChainMaker-specific configuration
type ChainMakerConfig struct {
	// --- SDK Connection Required ---
	ChainID string `yaml:"chain_id"`
	OrgID   string `yaml:"org_id"`

	// TLS Connection Credentials
	UserKeyPath  string `yaml:"user_key_path"`
	UserCertPath string `yaml:"user_cert_path"`

	// Transaction Signing Credentials
	UserSignKeyPath  string `yaml:"user_sign_key_path"`
	UserSignCertPath string `yaml:"user_sign_cert_path"`

	Nodes []NodeConfig `yaml:"nodes"`

	// --- Business Logic Required ---
	ContractName                 string `yaml:"contract_name"`
	SubmitAnchorsBatchMethodName string `yaml:"submit_anchors_batch_method_name"`
	ParamKeyAnchorsJson          string `yaml:"param_key_anchors_json"`
	FindAnchorByRootMethodName   string `yaml:"find_anchor_by_root_method_name"`
	ParamKeyRootHash             string `yaml:"param_key_root_hash"`
	AnchorEventTopic             string `yaml:"anchor_event_topic"`
}

// LoadChainMakerConfig loads ChainMaker configuration from the specified YAML file path
func LoadChainMakerConfig(path string) (*ChainMakerConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of ChainMaker config file: %w", err)
	}

	fmt.Printf("Loading ChainMaker configuration from '%s'...\n", absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ChainMaker config file '%s': %w", absPath, err)
	}

	var cfg ChainMakerConfig
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ChainMaker YAML config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fmt.Println("ChainMaker configuration loaded successfully.")
	return &cfg, nil
}

// Validate checks the fields the anchoring calls depend on
func (c *ChainMakerConfig) Validate() error {
	if c.ChainID == "" || c.OrgID == "" {
		return fmt.Errorf("chainmaker chain_id and org_id are required")
	}
	if c.ContractName == "" || c.SubmitAnchorsBatchMethodName == "" || c.ParamKeyAnchorsJson == "" {
		return fmt.Errorf("chainmaker contract_name, submit_anchors_batch_method_name and param_key_anchors_json are required")
	}
	return nil
}
