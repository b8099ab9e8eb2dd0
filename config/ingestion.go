package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaProducerConfig defines configuration for a Kafka producer
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// Enabled reports whether brokers and a topic are configured
func (c *KafkaProducerConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Brokers[0] != "mock://local" && c.Topic != ""
}

// BatchProcessorConfig defines configuration for buffered batch publishing
type BatchProcessorConfig struct {
	BatchSize          int           `yaml:"batch_size"`
	BatchTimeout       time.Duration `yaml:"batch_timeout"`
	MaxBufferSize      int           `yaml:"max_buffer_size"`
	FlushChannelBuffer int           `yaml:"flush_channel_buffer"` // Buffer size for flush channel
}

// SetDefaults sets reasonable default values for batch processor configuration
func (c *BatchProcessorConfig) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 100
		fmt.Printf("Warning: batch_processor.batch_size not set, defaulting to %d\n", c.BatchSize)
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 100 * time.Millisecond
		fmt.Printf("Warning: batch_processor.batch_timeout not set, defaulting to %v\n", c.BatchTimeout)
	}
	if c.MaxBufferSize == 0 {
		c.MaxBufferSize = 10000
		fmt.Printf("Warning: batch_processor.max_buffer_size not set, defaulting to %d\n", c.MaxBufferSize)
	}
	if c.FlushChannelBuffer == 0 {
		c.FlushChannelBuffer = 100
		fmt.Printf("Warning: batch_processor.flush_channel_buffer not set, defaulting to %d\n", c.FlushChannelBuffer)
	}
}

// HttpServerConfig defines HTTP server configuration
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// SetDefaults fills zero timeouts
func (c *HttpServerConfig) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20 // 1 MB
	}
}

// IngestionConfig defines the configuration of the trip feeder, which reads
// raw supplier telemetry and publishes one message per trip to Kafka
type IngestionConfig struct {
	DataFilePath string `yaml:"data_file_path"`

	// When set, the feeder keeps running and accepts POST /v1/trips
	HttpListenAddr string           `yaml:"http_listen_addr"`
	HttpServer     HttpServerConfig `yaml:"http_server"`

	KafkaProducer  KafkaProducerConfig  `yaml:"kafka_producer"`
	BatchProcessor BatchProcessorConfig `yaml:"batch_processor"`
}

// LoadIngestionConfig loads the trip feeder configuration from the specified YAML file path
func LoadIngestionConfig(path string) (*IngestionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingestion config file '%s': %w", path, err)
	}

	var cfg IngestionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ingestion YAML config file: %w", err)
	}

	cfg.BatchProcessor.SetDefaults()
	cfg.HttpServer.SetDefaults()
	if cfg.DataFilePath == "" {
		cfg.DataFilePath = "./data/synthetic_data.json"
		fmt.Printf("Warning: data_file_path not set, defaulting to %s\n", cfg.DataFilePath)
	}

	if len(cfg.KafkaProducer.Brokers) == 0 || cfg.KafkaProducer.Topic == "" {
		return nil, fmt.Errorf("configuration error: kafka_producer.brokers and kafka_producer.topic are required")
	}

	return &cfg, nil
}
