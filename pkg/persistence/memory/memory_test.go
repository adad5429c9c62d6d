package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

func sampleRecord(clientID, root string, createdAt int64) *types.CommitmentRecord {
	return &types.CommitmentRecord{
		ClientID:   clientID,
		Root:       root,
		NumRecords: 8,
		Depth:      3,
		Encoding:   "label-only",
		CreatedAt:  createdAt,
	}
}

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	record := sampleRecord("42", "1001", 100)
	require.NoError(t, store.SaveCommitment(record))

	loaded, err := store.LoadCommitment("42", "1001")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, record, loaded)

	// Mutating the loaded copy must not touch the stored record.
	loaded.Depth = 99
	again, err := store.LoadCommitment("42", "1001")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Depth)
}

func TestMemoryStore_LoadMissing(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	loaded, err := store.LoadCommitment("42", "nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_ListSortedPerClient(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveCommitment(sampleRecord("42", "3", 300)))
	require.NoError(t, store.SaveCommitment(sampleRecord("42", "1", 100)))
	require.NoError(t, store.SaveCommitment(sampleRecord("42", "2", 200)))
	require.NoError(t, store.SaveCommitment(sampleRecord("7", "9", 50)))

	records, err := store.ListCommitments("42")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1", records[0].Root)
	assert.Equal(t, "2", records[1].Root)
	assert.Equal(t, "3", records[2].Root)

	other, err := store.ListCommitments("7")
	require.NoError(t, err)
	require.Len(t, other, 1)

	empty, err := store.ListCommitments("unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveCommitment(sampleRecord("42", "1", 100)))
	require.NoError(t, store.DeleteCommitment("42", "1"))

	loaded, err := store.LoadCommitment("42", "1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Idempotent.
	require.NoError(t, store.DeleteCommitment("42", "1"))
}

func TestMemoryStore_SaveInvalid(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	assert.Error(t, store.SaveCommitment(nil))
	assert.Error(t, store.SaveCommitment(&types.CommitmentRecord{Root: "1"}))
	assert.Error(t, store.SaveCommitment(&types.CommitmentRecord{ClientID: "1"}))
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	assert.Error(t, store.SaveCommitment(sampleRecord("1", "1", 1)))
	_, err := store.LoadCommitment("1", "1")
	assert.Error(t, err)
	_, err = store.ListCommitments("1")
	assert.Error(t, err)
	assert.Error(t, store.DeleteCommitment("1", "1"))
	assert.Error(t, store.HealthCheck())

	// Close is idempotent.
	require.NoError(t, store.Close())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				root := fmt.Sprintf("%d-%d", i, j)
				_ = store.SaveCommitment(sampleRecord("42", root, int64(j)))
				_, _ = store.LoadCommitment("42", root)
				_, _ = store.ListCommitments("42")
			}
		}(i)
	}
	wg.Wait()

	records, err := store.ListCommitments("42")
	require.NoError(t, err)
	assert.Len(t, records, 200)
}
