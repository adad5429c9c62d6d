package persistence

import "github.com/zkfl-labs/balance-proof-go/pkg/types"

// ICommitmentStore defines the interface for the commitment registry: the
// durable record of which roots each client has published, under which leaf
// encoding and shape. All implementations must be thread-safe.
//
// Registry entries are immutable once written; re-saving the same
// (client_id, root) pair overwrites with identical content and is idempotent.
type ICommitmentStore interface {
	// SaveCommitment persists one commitment record, keyed by
	// (client_id, root). Returns error only on storage failure.
	SaveCommitment(record *types.CommitmentRecord) error

	// LoadCommitment retrieves a record by client id and root.
	// Returns nil if the record doesn't exist, error only on storage failure.
	LoadCommitment(clientID, root string) (*types.CommitmentRecord, error)

	// ListCommitments returns all records for a client, sorted by creation
	// time (ascending). Returns empty slice if none exist, error only on
	// storage failure.
	ListCommitments(clientID string) ([]*types.CommitmentRecord, error)

	// DeleteCommitment removes a record by client id and root.
	// Idempotent - returns nil if the record doesn't exist.
	DeleteCommitment(clientID, root string) error

	// Close cleanly shuts down the store. Idempotent.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational. Returns nil if
	// healthy. Should be called during startup to fail fast.
	HealthCheck() error
}
