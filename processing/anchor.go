package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	blockchain "tripledger/blockchain/client"
	"tripledger/blockchain/types"
	"tripledger/config"
	"tripledger/internal/models"
	"tripledger/ledger/store"
)

// AnchorReceipt records where a sealed root was anchored
type AnchorReceipt struct {
	TripID        string             `json:"trip_id"`
	AuditID       string             `json:"audit_id"`
	RootHash      string             `json:"root_hash"`
	TransactionID string             `json:"transaction_id,omitempty"`
	BlockHeight   uint64             `json:"block_height,omitempty"`
	Status        types.AnchorStatus `json:"status"`
	Message       string             `json:"message,omitempty"`
	AnchoredAt    time.Time          `json:"anchored_at"`
}

// Anchorer submits the data_hash of every sealed record to a chain in
// batches and keeps the receipts of the latest run.
type Anchorer struct {
	client    blockchain.AnchorClient
	batchSize int
	timeout   time.Duration
	logger    *log.Logger

	mu       sync.RWMutex
	receipts map[string]AnchorReceipt // trip_id -> receipt
}

// NewAnchorer creates an Anchorer over client
func NewAnchorer(client blockchain.AnchorClient, cfg config.AnchorConfig, logger *log.Logger) *Anchorer {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		logger.Printf("Warning: Invalid anchor timeout '%s', using default 15s", cfg.Timeout)
		timeout = 15 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Anchorer{
		client:    client,
		batchSize: batchSize,
		timeout:   timeout,
		logger:    logger,
		receipts:  make(map[string]AnchorReceipt),
	}
}

// Anchor submits records in batches. Receipts of the previous run are
// replaced; entries of a failed batch are kept with the error message.
func (a *Anchorer) Anchor(ctx context.Context, records []*models.AuditRecord) error {
	receipts := make(map[string]AnchorReceipt, len(records))
	var failed []string

	for start := 0; start < len(records); start += a.batchSize {
		end := start + a.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		entries := make([]types.AnchorEntry, len(batch))
		for i, r := range batch {
			entries[i] = types.AnchorEntry{
				RootHash:   r.DataHash,
				AuditID:    r.AuditID,
				TripID:     r.TripID,
				RootScheme: r.RootScheme,
				SealedAt:   r.CalculatedAt.UTC().Format(time.RFC3339Nano),
			}
		}

		invokeCtx, cancel := context.WithTimeout(ctx, a.timeout)
		bcStart := time.Now()
		proof, results, err := a.client.SubmitAnchorsBatch(invokeCtx, entries)
		cancel()
		now := time.Now().UTC()

		if err != nil {
			failed = append(failed, err.Error())
			for _, r := range batch {
				receipts[r.TripID] = AnchorReceipt{
					TripID: r.TripID, AuditID: r.AuditID, RootHash: r.DataHash,
					Status: types.StatusErrorPutState, Message: err.Error(), AnchoredAt: now,
				}
			}
			continue
		}

		byRoot := make(map[string]types.AnchorStatusInfo, len(results))
		for _, res := range results {
			byRoot[res.RootHash] = res
		}
		for _, r := range batch {
			receipt := AnchorReceipt{
				TripID: r.TripID, AuditID: r.AuditID, RootHash: r.DataHash,
				TransactionID: proof.TransactionID, BlockHeight: proof.BlockHeight, AnchoredAt: now,
			}
			if res, ok := byRoot[r.DataHash]; ok {
				receipt.Status = res.Status
				receipt.Message = res.Message
			} else {
				receipt.Status = types.StatusErrorStateCheck
				receipt.Message = fmt.Sprintf("Missing result for root %s (TxID: %s)", r.DataHash, proof.TransactionID)
			}
			receipts[r.TripID] = receipt
		}
		a.logger.Printf("Anchored batch: size=%d, tx=%s, height=%d, blockchain=%v",
			len(batch), proof.TransactionID, proof.BlockHeight, time.Since(bcStart))
	}

	a.mu.Lock()
	a.receipts = receipts
	a.mu.Unlock()

	if len(failed) > 0 {
		return fmt.Errorf("%d anchor batches failed: %s", len(failed), failed[0])
	}
	return nil
}

// Receipt returns the latest receipt for tripID
func (a *Anchorer) Receipt(tripID string) (AnchorReceipt, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.receipts[tripID]
	return r, ok
}

// AnchorView combines the stored receipt with a live on-chain lookup of the
// record's current root
type AnchorView struct {
	Receipt     AnchorReceipt `json:"receipt"`
	CurrentRoot string        `json:"current_root"`
	OnChain     bool          `json:"on_chain"`
	ChainRecord string        `json:"chain_record,omitempty"`
	LookupError string        `json:"lookup_error,omitempty"`
}

// AnchorStatus looks up the anchor of tripID's current data_hash
func (b *Builder) AnchorStatus(ctx context.Context, tripID string) (*AnchorView, error) {
	if b.anchorer == nil {
		return nil, ErrAnchoringDisabled
	}
	rec, err := b.store.Get(tripID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: trip ID %s", ErrNotFound, tripID)
		}
		return nil, err
	}
	receipt, ok := b.anchorer.Receipt(tripID)
	if !ok {
		return nil, fmt.Errorf("%w: no anchor receipt for trip %s", ErrNotFound, tripID)
	}

	view := &AnchorView{Receipt: receipt, CurrentRoot: rec.DataHash}
	lookupCtx, cancel := context.WithTimeout(ctx, b.anchorer.timeout)
	defer cancel()
	chainRecord, err := b.anchorer.client.FindAnchorByRoot(lookupCtx, rec.DataHash)
	if err != nil {
		view.LookupError = err.Error()
		return view, nil
	}
	view.OnChain = true
	view.ChainRecord = chainRecord
	return view, nil
}
