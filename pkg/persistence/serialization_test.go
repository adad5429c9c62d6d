package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

func TestMarshalUnmarshalCommitmentRecord(t *testing.T) {
	record := &types.CommitmentRecord{
		ClientID:   "42",
		Root:       "17588839444551272102731786935275992860134485260951427000125439047042020951270",
		NumRecords: 8,
		Depth:      3,
		Encoding:   "label-only",
		CreatedAt:  1756500000,
	}

	data, err := MarshalCommitmentRecord(record)
	require.NoError(t, err)

	loaded, err := UnmarshalCommitmentRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestMarshalCommitmentRecordInvalid(t *testing.T) {
	tests := []struct {
		name   string
		record *types.CommitmentRecord
	}{
		{"nil", nil},
		{"missing client id", &types.CommitmentRecord{Root: "1", NumRecords: 4}},
		{"missing root", &types.CommitmentRecord{ClientID: "1", NumRecords: 4}},
		{"zero records", &types.CommitmentRecord{ClientID: "1", Root: "2", NumRecords: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCommitmentRecord(tt.record)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalCommitmentRecordInvalid(t *testing.T) {
	_, err := UnmarshalCommitmentRecord(nil)
	assert.Error(t, err)

	_, err = UnmarshalCommitmentRecord([]byte("{not json"))
	assert.Error(t, err)
}
