package blockchain

import (
	"context"

	"tripledger/blockchain/types"
)

// AnchorClient defines the generic interface for anchoring record roots on a chain
// This interface is blockchain-agnostic and can be implemented by different blockchain clients
type AnchorClient interface {
	// SubmitAnchorsBatch anchors a batch of record roots in a single transaction
	SubmitAnchorsBatch(ctx context.Context, entries []types.AnchorEntry) (*types.BatchProof, []types.AnchorStatusInfo, error)

	// FindAnchorByRoot queries the chain for the anchor of a root hash
	FindAnchorByRoot(ctx context.Context, rootHash string) (string, error)

	// GetAnchorByTxHash reads the anchoring event back from a transaction
	GetAnchorByTxHash(ctx context.Context, txHash string) (*types.AnchorData, error)

	// Close closes the blockchain client and releases resources
	Close() error

	// Config returns the configuration associated with the client
	Config() any // Return any to accommodate different config types
}
