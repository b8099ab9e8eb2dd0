package types

// AnchorEntry is one sealed record root sent to the chain.
// This is a generic type that can be implemented by any blockchain
type AnchorEntry struct {
	RootHash   string `json:"root_hash"`
	AuditID    string `json:"audit_id"`
	TripID     string `json:"trip_id"`
	RootScheme string `json:"root_scheme"`
	SealedAt   string `json:"sealed_at"` // RFC3339Nano
}

// AnchorStatus is the per-entry result reported by the anchoring contract
type AnchorStatus string

const (
	StatusSuccess          AnchorStatus = "Success"
	StatusSkippedDuplicate AnchorStatus = "SkippedDuplicate"
	StatusErrorValidation  AnchorStatus = "ErrorValidation"
	StatusErrorStateCheck  AnchorStatus = "ErrorStateCheck"
	StatusErrorPutState    AnchorStatus = "ErrorPutState"
)

// AnchorStatusInfo corresponds to the struct returned in the batch result JSON array
type AnchorStatusInfo struct {
	RootHash string       `json:"root_hash"`
	Status   AnchorStatus `json:"status"`
	Message  string       `json:"message"`
}

// BatchProof holds the results common to the entire batch transaction
type BatchProof struct {
	TransactionID string // The TxID for the single batch transaction
	BlockHeight   uint64 // The block height where the batch was included
}

// AnchorData is the raw anchoring data parsed from on-chain events
type AnchorData struct {
	RootHash  string
	AuditID   string
	Timestamp string
}
