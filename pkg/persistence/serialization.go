package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// MarshalCommitmentRecord serializes a CommitmentRecord to JSON bytes.
// Required fields are checked here so a malformed record never reaches a
// backend.
func MarshalCommitmentRecord(r *types.CommitmentRecord) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("cannot marshal nil CommitmentRecord")
	}
	if r.ClientID == "" || r.Root == "" {
		return nil, fmt.Errorf("CommitmentRecord requires client id and root")
	}
	if r.NumRecords < 1 {
		return nil, fmt.Errorf("CommitmentRecord requires a positive record count, got %d", r.NumRecords)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CommitmentRecord to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalCommitmentRecord deserializes a CommitmentRecord from JSON bytes.
func UnmarshalCommitmentRecord(data []byte) (*types.CommitmentRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var r types.CommitmentRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to CommitmentRecord: %w", err)
	}

	return &r, nil
}
