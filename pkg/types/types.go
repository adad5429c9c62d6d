package types

import (
	"fmt"
	"math/big"
)

// Record is one committed dataset entry. Index is the record's position in the
// committed order; the position fixes the leaf's path through the tree, so it
// is never transmitted separately. Records are immutable once committed.
type Record struct {
	Index int
	// Label is the record's binary class. Declared as int64 rather than a
	// bool so that out-of-domain values survive long enough to be rejected
	// explicitly instead of being coerced.
	Label int64
	// Features is the optional feature vector (fixed dimension per dataset),
	// already encoded as field-sized integers. Nil in label-only datasets.
	Features []*big.Int
}

// Dataset is an ordered snapshot of records. The order is part of the
// commitment: reordering records changes the root.
type Dataset struct {
	Records []*Record
}

// Size returns the number of records.
func (d *Dataset) Size() int {
	return len(d.Records)
}

// Labels returns the label sequence in committed order.
func (d *Dataset) Labels() []int64 {
	labels := make([]int64, len(d.Records))
	for i, r := range d.Records {
		labels[i] = r.Label
	}
	return labels
}

// BalanceClaim is the public tuple the verifier sees. The field order here is
// the public-input order of the statement: (client_id, root, N_public, c0, c1).
type BalanceClaim struct {
	ClientID *big.Int
	Root     *big.Int
	NPublic  int
	C0       int
	C1       int
}

// Validate checks the claim's internal arithmetic consistency. It does not
// (and cannot) check the counts against the private labels; that is the
// statement's job.
func (c *BalanceClaim) Validate() error {
	if c.ClientID == nil || c.Root == nil {
		return fmt.Errorf("claim is missing client id or root")
	}
	if c.NPublic < 0 || c.C0 < 0 || c.C1 < 0 {
		return fmt.Errorf("claim counts must be non-negative: N=%d c0=%d c1=%d", c.NPublic, c.C0, c.C1)
	}
	if c.C0+c.C1 != c.NPublic {
		return fmt.Errorf("claim counts do not sum to N: c0=%d c1=%d N=%d", c.C0, c.C1, c.NPublic)
	}
	return nil
}

// ToleranceClaim extends a BalanceClaim with a class-imbalance bound:
// |c0 - c1| <= floor(tolerance_percent * N / 100).
type ToleranceClaim struct {
	BalanceClaim
	TolerancePercent int
}

// ToleranceBound returns floor(tolerancePercent * n / 100).
func ToleranceBound(tolerancePercent, n int) int {
	return tolerancePercent * n / 100
}

// Validate checks internal consistency including the imbalance bound.
func (c *ToleranceClaim) Validate() error {
	if err := c.BalanceClaim.Validate(); err != nil {
		return err
	}
	if c.TolerancePercent < 0 || c.TolerancePercent > 100 {
		return fmt.Errorf("tolerance percent out of range: %d", c.TolerancePercent)
	}
	diff := c.C0 - c.C1
	if diff < 0 {
		diff = -diff
	}
	if bound := ToleranceBound(c.TolerancePercent, c.NPublic); diff > bound {
		return fmt.Errorf("class imbalance |c0-c1|=%d exceeds bound %d", diff, bound)
	}
	return nil
}

// CommitmentRecord is a published dataset commitment as stored in the
// commitment registry. Root is the decimal numeral of the field element, the
// only artifact a data holder must publish before proving.
type CommitmentRecord struct {
	ClientID   string `json:"clientId"`
	Root       string `json:"root"`
	NumRecords int    `json:"numRecords"`
	Depth      int    `json:"depth"`
	Encoding   string `json:"encoding"`
	FeatureDim int    `json:"featureDim,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
}
