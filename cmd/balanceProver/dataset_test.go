package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDatasetLabelOnly(t *testing.T) {
	path := writeTempCSV(t, "0\n1\n1\n0\n")

	dataset, err := loadDataset(path, 0)
	require.NoError(t, err)
	require.Equal(t, 4, dataset.Size())
	assert.Equal(t, []int64{0, 1, 1, 0}, dataset.Labels())
	assert.Nil(t, dataset.Records[0].Features)
}

func TestLoadDatasetWithFeatures(t *testing.T) {
	path := writeTempCSV(t, "1500,2250,1\n900,1100,0\n")

	dataset, err := loadDataset(path, 2)
	require.NoError(t, err)
	require.Equal(t, 2, dataset.Size())
	assert.Equal(t, []int64{1, 0}, dataset.Labels())
	assert.Equal(t, big.NewInt(1500), dataset.Records[0].Features[0])
	assert.Equal(t, big.NewInt(1100), dataset.Records[1].Features[1])
}

func TestLoadDatasetErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadDataset("/nonexistent/data.csv", 0)
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := loadDataset(writeTempCSV(t, ""), 0)
		assert.Error(t, err)
	})

	t.Run("malformed label", func(t *testing.T) {
		_, err := loadDataset(writeTempCSV(t, "0\nx\n"), 0)
		assert.Error(t, err)
	})

	t.Run("wrong column count", func(t *testing.T) {
		_, err := loadDataset(writeTempCSV(t, "1,2,1\n3,0\n"), 2)
		assert.Error(t, err)
	})

	t.Run("malformed feature", func(t *testing.T) {
		_, err := loadDataset(writeTempCSV(t, "abc,2,1\n"), 2)
		assert.Error(t, err)
	})
}
