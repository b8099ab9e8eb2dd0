package chainmaker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadChainMakerConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chainmaker.yml")
	yml := `
chain_id: chain1
org_id: org1
nodes:
  - address: 127.0.0.1:12301
    conn_count: 2
contract_name: trip_anchor
submit_anchors_batch_method_name: submit_anchors_batch
param_key_anchors_json: anchors_json
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	cfg, err := LoadChainMakerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "trip_anchor", cfg.ContractName)
	require.Len(t, cfg.Nodes, 1)
	assert.Equal(t, 2, cfg.Nodes[0].ConnCount)

	require.NoError(t, os.WriteFile(path, []byte("chain_id: chain1\norg_id: org1\n"), 0o644))
	_, err = LoadChainMakerConfig(path)
	assert.Error(t, err, "contract fields are required")
}
