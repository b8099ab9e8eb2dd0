package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngineConfig_Defaults(t *testing.T) {
	cfg, err := ParseEngineConfig([]byte("http_listen_addr: \":8001\"\n"))
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.Source.Type)
	assert.Equal(t, "./data/synthetic_data.json", cfg.Source.FilePath)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, "flat", cfg.Ledger.RootScheme)
	assert.False(t, cfg.Ledger.ResetViolationsOnReprocess)
	assert.False(t, cfg.Simulation.Enabled)
	assert.Equal(t, "/health", cfg.Monitoring.HealthCheckPath)
	assert.Equal(t, 100, cfg.ViolationForwarder.BatchSize)
	assert.False(t, cfg.ViolationProducer.Enabled())
}

func TestParseEngineConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no listener", "source:\n  type: file\n"},
		{"unknown source", "http_listen_addr: \":1\"\nsource:\n  type: s3\n"},
		{"kafka without group", "http_listen_addr: \":1\"\nsource:\n  type: kafka\nkafka_consumer:\n  brokers: [\"k:9092\"]\n  topic: trips\n"},
		{"postgres without dsn", "http_listen_addr: \":1\"\nsource:\n  type: postgres\n"},
		{"bad root scheme", "http_listen_addr: \":1\"\nledger:\n  root_scheme: tree\n"},
		{"bad yaml", "http_listen_addr: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEngineConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseEngineConfig_KafkaSource(t *testing.T) {
	yml := `
grpc_listen_addr: ":9090"
source:
  type: kafka
kafka_consumer:
  brokers: ["kafka:9092"]
  topic: trips
  group_id: tripledger
ledger:
  root_scheme: binary
  reset_violations_on_reprocess: true
`
	cfg, err := ParseEngineConfig([]byte(yml))
	require.NoError(t, err)
	assert.Equal(t, "2s", cfg.Source.DrainTimeout)
	assert.Equal(t, 10000, cfg.Source.MaxMessages)
	assert.Equal(t, "earliest", cfg.KafkaConsumer.AutoOffsetReset)
	assert.Equal(t, "binary", cfg.Ledger.RootScheme)
	assert.True(t, cfg.Ledger.ResetViolationsOnReprocess)
}

func TestDatabaseConfig_RejectsUnsafeTableNames(t *testing.T) {
	c := DatabaseConfig{DSN: "postgres://x", TripsTable: "trips; drop table x", PingsTable: "gps_pings"}
	c.SetDefaults()
	assert.Error(t, c.Validate())

	c.TripsTable = "trips_2024"
	assert.NoError(t, c.Validate())
	assert.False(t, isIdentifier("1trips"))
}

func TestLoadEmissionFactors(t *testing.T) {
	t.Run("missing file falls back to built-in", func(t *testing.T) {
		cfg, err := LoadEmissionFactors(filepath.Join(t.TempDir(), "absent.yml"))
		require.NoError(t, err)
		assert.Equal(t, 0.65, cfg.Factors.Resolve("Medium-Duty Truck"))
		assert.Equal(t, 0.8, cfg.Factors.Resolve("Hovercraft"))
		assert.Equal(t, "2024.1", cfg.Metadata.Version)
	})

	t.Run("file overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FactorsFile)
		yml := `
factors:
  default: 1.0
  E-Van: 0.05
metadata:
  source: Test Authority
  version: "2025.2"
  validity_period: "2025-01-01 to 2025-12-31"
  unit: kg CO2e / km
`
		require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
		cfg, err := LoadEmissionFactors(path)
		require.NoError(t, err)
		assert.Equal(t, 0.05, cfg.Factors.Resolve("E-Van"))
		assert.Equal(t, 1.0, cfg.Factors.Resolve("Light-Duty Van"))
		assert.Equal(t, "Test Authority", cfg.Metadata.Source)
		assert.NotEmpty(t, cfg.Methodology)
	})

	t.Run("missing default entry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FactorsFile)
		require.NoError(t, os.WriteFile(path, []byte("factors:\n  Van: 0.3\nmetadata:\n  source: a\n  version: b\n"), 0o644))
		_, err := LoadEmissionFactors(path)
		assert.Error(t, err)
	})

	t.Run("non-positive factor", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FactorsFile)
		require.NoError(t, os.WriteFile(path, []byte("factors:\n  default: 0.8\n  Van: -1\nmetadata:\n  source: a\n  version: b\n"), 0o644))
		_, err := LoadEmissionFactors(path)
		assert.Error(t, err)
	})
}

func TestLoadConfig_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EngineFile), []byte("http_listen_addr: \":8001\"\n"), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Engine)
	assert.Nil(t, cfg.Ingestion)
	assert.Nil(t, cfg.Blockchain)
	require.NotNil(t, cfg.EmissionFactors)
	assert.Equal(t, 2.5, cfg.EmissionFactors.Factors.Resolve("Cargo Plane"))
}

func TestLoadIngestionConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), IngestionFile)
	require.NoError(t, os.WriteFile(path, []byte("kafka_producer:\n  brokers: [\"k:9092\"]\n  topic: trips\n"), 0o644))
	cfg, err := LoadIngestionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./data/synthetic_data.json", cfg.DataFilePath)
	assert.Equal(t, 100, cfg.BatchProcessor.BatchSize)

	require.NoError(t, os.WriteFile(path, []byte("data_file_path: x.json\n"), 0o644))
	_, err = LoadIngestionConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_ShippedFiles(t *testing.T) {
	cfg, err := LoadConfig(".")
	require.NoError(t, err)

	require.NotNil(t, cfg.Engine)
	assert.Equal(t, SourceFile, cfg.Engine.Source.Type)
	assert.True(t, cfg.Engine.Simulation.Enabled)
	assert.False(t, cfg.Engine.ViolationProducer.Enabled())
	assert.Nil(t, cfg.Blockchain, "anchoring is off in the shipped engine file")

	require.NotNil(t, cfg.Ingestion)
	assert.Equal(t, "trip-telemetry", cfg.Ingestion.KafkaProducer.Topic)
	assert.Equal(t, cfg.Engine.KafkaConsumer.Topic, cfg.Ingestion.KafkaProducer.Topic)

	assert.Equal(t, DefaultEmissionFactors().Factors, cfg.EmissionFactors.Factors)
	assert.Equal(t, DefaultEmissionFactors().Metadata, cfg.EmissionFactors.Metadata)
}
