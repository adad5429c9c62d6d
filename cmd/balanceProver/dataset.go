package main

import (
	"encoding/csv"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// loadDataset reads a dataset from CSV. Each row is either a bare label
// (label-only encoding) or featureDim feature columns followed by the label
// (feature-bound encoding). Feature values are integers, already fixed-point
// scaled by the caller's pipeline.
func loadDataset(path string, featureDim int) (*types.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = featureDim + 1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}

	records := make([]*types.Record, len(rows))
	for i, row := range rows {
		label, err := strconv.ParseInt(row[featureDim], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: malformed label %q", i, row[featureDim])
		}

		record := &types.Record{Index: i, Label: label}
		if featureDim > 0 {
			record.Features = make([]*big.Int, featureDim)
			for j := 0; j < featureDim; j++ {
				f, ok := new(big.Int).SetString(row[j], 10)
				if !ok {
					return nil, fmt.Errorf("row %d: malformed feature %q", i, row[j])
				}
				record.Features[j] = f
			}
		}
		records[i] = record
	}

	return &types.Dataset{Records: records}, nil
}
