package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// MemoryStore is an in-memory implementation of ICommitmentStore.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryStore struct {
	mu sync.RWMutex

	// (clientID, root) -> CommitmentRecord
	records map[string]*types.CommitmentRecord

	closed bool
}

// NewMemoryStore creates a new in-memory commitment registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*types.CommitmentRecord),
	}
}

func recordKey(clientID, root string) string {
	return clientID + "/" + root
}

// SaveCommitment persists a commitment record.
func (m *MemoryStore) SaveCommitment(record *types.CommitmentRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil CommitmentRecord")
	}
	if record.ClientID == "" || record.Root == "" {
		return fmt.Errorf("CommitmentRecord requires client id and root")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("commitment store is closed")
	}

	m.records[recordKey(record.ClientID, record.Root)] = copyRecord(record)
	return nil
}

// LoadCommitment retrieves a commitment record by client id and root.
func (m *MemoryStore) LoadCommitment(clientID, root string) (*types.CommitmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	record, exists := m.records[recordKey(clientID, root)]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return copyRecord(record), nil
}

// ListCommitments returns all of a client's records sorted by creation time.
func (m *MemoryStore) ListCommitments(clientID string) ([]*types.CommitmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	result := make([]*types.CommitmentRecord, 0)
	for _, record := range m.records {
		if record.ClientID == clientID {
			result = append(result, copyRecord(record))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Root < result[j].Root
	})

	return result, nil
}

// DeleteCommitment removes a commitment record.
func (m *MemoryStore) DeleteCommitment(clientID, root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("commitment store is closed")
	}

	delete(m.records, recordKey(clientID, root))
	return nil
}

// Close shuts down the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is operational.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("commitment store is closed")
	}

	return nil
}

func copyRecord(r *types.CommitmentRecord) *types.CommitmentRecord {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
