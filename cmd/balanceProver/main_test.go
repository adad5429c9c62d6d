package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkfl-labs/balance-proof-go/pkg/config"
)

// TestLoadCachedSystemMissingCache tests that verification never mints fresh
// keys: a missing circuit cache is an explicit error, not a silent setup.
func TestLoadCachedSystemMissingCache(t *testing.T) {
	cfg := &config.ProverConfig{
		ClientID:         "7",
		NumRecords:       4,
		Encoding:         "label-only",
		TolerancePercent: -1,
		StoreType:        config.StoreTypeMemory,
		CircuitCacheDir:  t.TempDir(),
	}
	require.NoError(t, cfg.Validate())

	system, err := loadCachedSystem(cfg, circuitParams(cfg), nil)
	require.Error(t, err)
	require.Nil(t, system)
	require.Contains(t, err.Error(), "no proving system cached")
}
