package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Trip source types
const (
	SourceFile     = "file"
	SourceKafka    = "kafka"
	SourcePostgres = "postgres"
)

// SourceConfig selects where raw trips come from
type SourceConfig struct {
	Type         string `yaml:"type"`          // file | kafka | postgres
	FilePath     string `yaml:"file_path"`     // file source: supplier telemetry JSON
	DrainTimeout string `yaml:"drain_timeout"` // kafka source: stop after this long without a message
	MaxMessages  int    `yaml:"max_messages"`  // kafka source: upper bound per run
}

// SetDefaults sets reasonable default values for the source configuration
func (c *SourceConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = SourceFile
		fmt.Printf("Warning: source.type not set, defaulting to %s\n", c.Type)
	}
	if c.Type == SourceFile && c.FilePath == "" {
		c.FilePath = "./data/synthetic_data.json"
		fmt.Printf("Warning: source.file_path not set, defaulting to %s\n", c.FilePath)
	}
	if c.Type == SourceKafka {
		if c.DrainTimeout == "" {
			c.DrainTimeout = "2s"
			fmt.Printf("Warning: source.drain_timeout not set, defaulting to %s\n", c.DrainTimeout)
		}
		if c.MaxMessages <= 0 {
			c.MaxMessages = 10000
			fmt.Printf("Warning: source.max_messages not set or invalid, defaulting to %d\n", c.MaxMessages)
		}
	}
}

// KafkaConsumerConfig defines configuration for the Kafka trip consumer
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`            // e.g., ["kafka1:9092", "kafka2:9092"]
	Topic             string   `yaml:"topic"`              // Topic to consume from
	GroupID           string   `yaml:"group_id"`           // Consumer group ID
	SessionTimeout    string   `yaml:"session_timeout"`    // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"` // Kafka heartbeat interval
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`  // earliest/latest
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
		fmt.Printf("Warning: kafka_consumer.session_timeout not set, defaulting to %s\n", c.SessionTimeout)
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
		fmt.Printf("Warning: kafka_consumer.heartbeat_interval not set, defaulting to %s\n", c.HeartbeatInterval)
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
		fmt.Printf("Warning: kafka_consumer.auto_offset_reset not set, defaulting to %s\n", c.AutoOffsetReset)
	}
}

// WorkerConfig defines configuration for the per-trip worker pool
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"` // Number of trips computed in parallel
}

// SetDefaults sets reasonable default values for worker configuration
func (c *WorkerConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
		fmt.Printf("Warning: worker.concurrency not set or invalid, defaulting to %d\n", c.Concurrency)
	}
}

// LedgerConfig defines integrity ledger behaviour
type LedgerConfig struct {
	RootScheme                 string `yaml:"root_scheme"`                    // flat | binary
	ResetViolationsOnReprocess bool   `yaml:"reset_violations_on_reprocess"` // administrative reprocess clears the tamper log
}

// SetDefaults sets reasonable default values for ledger configuration
func (c *LedgerConfig) SetDefaults() {
	if c.RootScheme == "" {
		c.RootScheme = "flat"
		fmt.Printf("Warning: ledger.root_scheme not set, defaulting to %s\n", c.RootScheme)
	}
}

// SimulationConfig gates the demo-only tamper endpoint
type SimulationConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AnchorConfig defines how sealed roots are anchored on chain
type AnchorConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Timeout   string `yaml:"timeout"`
}

// SetDefaults sets reasonable default values for anchor configuration
func (c *AnchorConfig) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
		fmt.Printf("Warning: anchor.batch_size not set or invalid, defaulting to %d\n", c.BatchSize)
	}
	if c.Timeout == "" {
		c.Timeout = "15s"
		fmt.Printf("Warning: anchor.timeout not set, defaulting to %s\n", c.Timeout)
	}
}

// EngineMonitoringConfig defines monitoring configuration for engine
type EngineMonitoringConfig struct {
	HealthCheckPath string `yaml:"health_check_path"` // Health check endpoint path
}

// SetDefaults sets reasonable default values for monitoring configuration
func (c *EngineMonitoringConfig) SetDefaults() {
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = "/health"
		fmt.Printf("Warning: monitoring.health_check_path not set, defaulting to %s\n", c.HealthCheckPath)
	}
}

// EngineConfig defines all configuration for the audit engine
type EngineConfig struct {
	Source        SourceConfig        `yaml:"source"`
	Database      DatabaseConfig      `yaml:"database"`       // postgres source only
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"` // kafka source only

	// New violations are forwarded here; empty brokers means log only
	ViolationProducer  KafkaProducerConfig  `yaml:"violation_producer"`
	ViolationForwarder BatchProcessorConfig `yaml:"violation_forwarder"`

	Worker     WorkerConfig     `yaml:"worker"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Simulation SimulationConfig `yaml:"simulation"`
	Anchor     AnchorConfig     `yaml:"anchor"`

	HttpListenAddr string                 `yaml:"http_listen_addr"`
	GrpcListenAddr string                 `yaml:"grpc_listen_addr"`
	HttpServer     HttpServerConfig       `yaml:"http_server"`
	Monitoring     EngineMonitoringConfig `yaml:"monitoring"`

	EmissionFactorsPath        string `yaml:"emission_factors_path"`
	BlockchainClientConfigPath string `yaml:"blockchain_client_config_path"` // empty disables anchoring
}

// SetDefaults applies defaults to every section
func (cfg *EngineConfig) SetDefaults() {
	cfg.Source.SetDefaults()
	switch cfg.Source.Type {
	case SourcePostgres:
		cfg.Database.SetDefaults()
	case SourceKafka:
		cfg.KafkaConsumer.SetDefaults()
	}
	cfg.ViolationForwarder.SetDefaults()
	cfg.Worker.SetDefaults()
	cfg.Ledger.SetDefaults()
	cfg.Monitoring.SetDefaults()
	cfg.HttpServer.SetDefaults()
	if cfg.BlockchainClientConfigPath != "" {
		cfg.Anchor.SetDefaults()
	}
}

// Validate checks the sections that the selected source and features need
func (cfg *EngineConfig) Validate() error {
	switch cfg.Source.Type {
	case SourceFile:
		if cfg.Source.FilePath == "" {
			return fmt.Errorf("source.file_path is required for the file source")
		}
	case SourceKafka:
		if len(cfg.KafkaConsumer.Brokers) == 0 || cfg.KafkaConsumer.Topic == "" || cfg.KafkaConsumer.GroupID == "" {
			return fmt.Errorf("kafka_consumer brokers, topic and group_id are required for the kafka source")
		}
		if _, err := time.ParseDuration(cfg.Source.DrainTimeout); err != nil {
			return fmt.Errorf("invalid source.drain_timeout '%s': %w", cfg.Source.DrainTimeout, err)
		}
	case SourcePostgres:
		if err := cfg.Database.Validate(); err != nil {
			return fmt.Errorf("database configuration error: %w", err)
		}
	default:
		return fmt.Errorf("unsupported source.type '%s'", cfg.Source.Type)
	}

	if cfg.Ledger.RootScheme != "flat" && cfg.Ledger.RootScheme != "binary" {
		return fmt.Errorf("unsupported ledger.root_scheme '%s' (want flat or binary)", cfg.Ledger.RootScheme)
	}
	if cfg.HttpListenAddr == "" && cfg.GrpcListenAddr == "" {
		return fmt.Errorf("configuration error: at least one of http_listen_addr or grpc_listen_addr must be configured")
	}
	return nil
}

// LoadEngineConfig loads configuration from the specified YAML file path
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return ParseEngineConfig(data)
}

// ParseEngineConfig decodes, defaults and validates engine YAML
func ParseEngineConfig(data []byte) (*EngineConfig, error) {
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
