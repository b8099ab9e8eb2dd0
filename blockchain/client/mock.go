package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"tripledger/blockchain/types"
)

// MockAnchorClient anchors roots in memory. Transaction IDs are derived from
// the batch contents and block heights increase by one per batch.
type MockAnchorClient struct {
	mu      sync.Mutex
	height  uint64
	anchors map[string]types.AnchorEntry // root -> entry
	txs     map[string][]types.AnchorEntry
	FailWith error // when set, SubmitAnchorsBatch returns it
}

// NewMockAnchorClient creates an empty MockAnchorClient
func NewMockAnchorClient() *MockAnchorClient {
	return &MockAnchorClient{
		anchors: make(map[string]types.AnchorEntry),
		txs:     make(map[string][]types.AnchorEntry),
	}
}

// SubmitAnchorsBatch implements AnchorClient
func (m *MockAnchorClient) SubmitAnchorsBatch(ctx context.Context, entries []types.AnchorEntry) (*types.BatchProof, []types.AnchorStatusInfo, error) {
	if len(entries) == 0 {
		return nil, nil, errors.New("anchor entry batch cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, nil, m.FailWith
	}

	m.height++
	h := sha256.New()
	fmt.Fprintf(h, "%d", m.height)
	results := make([]types.AnchorStatusInfo, 0, len(entries))
	for _, e := range entries {
		h.Write([]byte(e.RootHash))
		if _, dup := m.anchors[e.RootHash]; dup {
			results = append(results, types.AnchorStatusInfo{RootHash: e.RootHash, Status: types.StatusSkippedDuplicate, Message: "root already anchored"})
			continue
		}
		if e.RootHash == "" {
			results = append(results, types.AnchorStatusInfo{RootHash: e.RootHash, Status: types.StatusErrorValidation, Message: "empty root hash"})
			continue
		}
		m.anchors[e.RootHash] = e
		results = append(results, types.AnchorStatusInfo{RootHash: e.RootHash, Status: types.StatusSuccess})
	}
	txID := hex.EncodeToString(h.Sum(nil))
	m.txs[txID] = entries
	return &types.BatchProof{TransactionID: txID, BlockHeight: m.height}, results, nil
}

// FindAnchorByRoot implements AnchorClient; it returns the audit ID the root was anchored under
func (m *MockAnchorClient) FindAnchorByRoot(_ context.Context, rootHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.anchors[rootHash]
	if !ok {
		return "", fmt.Errorf("root %s not anchored", rootHash)
	}
	return e.AuditID, nil
}

// GetAnchorByTxHash implements AnchorClient; it returns the first entry of the transaction
func (m *MockAnchorClient) GetAnchorByTxHash(_ context.Context, txHash string) (*types.AnchorData, error) {
	if txHash == "" {
		return nil, fmt.Errorf("transaction hash cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.txs[txHash]
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("transaction %s not found", txHash)
	}
	return &types.AnchorData{RootHash: entries[0].RootHash, AuditID: entries[0].AuditID, Timestamp: entries[0].SealedAt}, nil
}

// Close implements AnchorClient
func (m *MockAnchorClient) Close() error { return nil }

// Config implements AnchorClient
func (m *MockAnchorClient) Config() any { return nil }

var _ AnchorClient = (*MockAnchorClient)(nil)
