// Package circuit arithmetizes the balance predicate and the membership of
// every labeled record in the committed dataset. The constraint system binds
// the public claim (client_id, root, N_public, c0, c1) to the private labels
// and Merkle paths; a satisfying witness exists iff the native checks in
// pkg/balance and pkg/merkle accept the same data.
package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/zkfl-labs/balance-proof-go/pkg/fieldhash"
	"github.com/zkfl-labs/balance-proof-go/pkg/merkle"
	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// Params fixes the shape of a circuit instance at construction time. A proving
// key compiled from one Params value only proves statements of that exact
// shape; changing any field means a fresh compile and setup.
type Params struct {
	// NumRecords is the genuine dataset size N, before padding.
	NumRecords int
	// Depth is the tree depth; must equal the depth the commitment layer
	// derives for NumRecords.
	Depth int
	// Encoding selects the leaf convention the membership paths re-derive.
	Encoding fieldhash.Encoding
	// FeatureDim is the fixed feature dimension for the feature-bound
	// encoding, zero otherwise.
	FeatureDim int
	// TolerancePercent enables the imbalance bound |c0-c1| <= floor(p*N/100)
	// when in [0,100]. A negative value compiles the exact-count circuit
	// with no tolerance constraint.
	TolerancePercent int
}

// Validate rejects shapes that could never match a commitment.
func (p Params) Validate() error {
	if p.NumRecords < 1 {
		return fmt.Errorf("circuit needs at least one record, got %d", p.NumRecords)
	}
	if want := merkle.DepthForSize(p.NumRecords); p.Depth != want {
		return fmt.Errorf("depth %d does not cover %d records, want %d", p.Depth, p.NumRecords, want)
	}
	if err := p.Encoding.Validate(); err != nil {
		return err
	}
	if p.Encoding == fieldhash.EncodingLabelOnly && p.FeatureDim != 0 {
		return fmt.Errorf("label-only encoding takes no feature dimension, got %d", p.FeatureDim)
	}
	if p.Encoding == fieldhash.EncodingFeatureBound && p.FeatureDim <= 0 {
		return fmt.Errorf("feature-bound encoding requires a positive feature dimension, got %d", p.FeatureDim)
	}
	if p.TolerancePercent > 100 {
		return fmt.Errorf("tolerance percent out of range: %d", p.TolerancePercent)
	}
	return nil
}

// BalanceCircuit is the constraint-system view of one balance statement.
// Field order of the public inputs is the wire order of the statement and is
// part of the external contract; do not reorder.
type BalanceCircuit struct {
	ClientID frontend.Variable `gnark:"client_id,public"`
	Root     frontend.Variable `gnark:"root,public"`
	NPublic  frontend.Variable `gnark:"N_public,public"`
	C0       frontend.Variable `gnark:"c0,public"`
	C1       frontend.Variable `gnark:"c1,public"`

	// Labels[i] is record i's class label, constrained to {0,1}.
	Labels []frontend.Variable `gnark:"bits"`
	// Features[i] is record i's feature vector; only allocated for the
	// feature-bound encoding.
	Features [][]frontend.Variable `gnark:"features"`
	// Siblings[i][j] and PathIndices[i][j] describe record i's Merkle path
	// at level j, leaf level first.
	Siblings    [][]frontend.Variable `gnark:"siblings"`
	PathIndices [][]frontend.Variable `gnark:"pathIndices"`

	params Params
}

// New allocates a circuit of the given shape, ready for frontend.Compile or
// for filling in as a witness assignment.
func New(p Params) (*BalanceCircuit, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := &BalanceCircuit{
		Labels:      make([]frontend.Variable, p.NumRecords),
		Siblings:    make([][]frontend.Variable, p.NumRecords),
		PathIndices: make([][]frontend.Variable, p.NumRecords),
		params:      p,
	}
	for i := 0; i < p.NumRecords; i++ {
		c.Siblings[i] = make([]frontend.Variable, p.Depth)
		c.PathIndices[i] = make([]frontend.Variable, p.Depth)
	}
	if p.Encoding == fieldhash.EncodingFeatureBound {
		c.Features = make([][]frontend.Variable, p.NumRecords)
		for i := 0; i < p.NumRecords; i++ {
			c.Features[i] = make([]frontend.Variable, p.FeatureDim)
		}
	}
	return c, nil
}

// Params returns the shape the circuit was allocated with.
func (c *BalanceCircuit) Params() Params {
	return c.params
}

// Define encodes the statement:
//
//	1. every label is boolean;
//	2. every record's leaf re-derives under the configured encoding and its
//	   Merkle path closes on the public root;
//	3. the labels' running sum equals c1 and c0 + c1 == N_public == N;
//	4. optionally, |c0 - c1| is within the tolerance bound.
func (c *BalanceCircuit) Define(api frontend.API) error {
	n := c.params.NumRecords

	sum := frontend.Variable(0)
	for i := 0; i < n; i++ {
		api.AssertIsBoolean(c.Labels[i])

		leaf, err := c.leaf(api, i)
		if err != nil {
			return err
		}

		current := leaf
		for j := 0; j < c.params.Depth; j++ {
			bit := c.PathIndices[i][j]
			api.AssertIsBoolean(bit)

			// bit = 0: current is the left child, 1: the right child.
			left := api.Select(bit, c.Siblings[i][j], current)
			right := api.Select(bit, current, c.Siblings[i][j])

			h, err := mimc.NewMiMC(api)
			if err != nil {
				return err
			}
			h.Write(left, right)
			current = h.Sum()
		}
		api.AssertIsEqual(current, c.Root)

		sum = api.Add(sum, c.Labels[i])
	}

	api.AssertIsEqual(sum, c.C1)
	api.AssertIsEqual(api.Add(c.C0, c.C1), c.NPublic)
	api.AssertIsEqual(c.NPublic, n)

	if c.params.TolerancePercent >= 0 {
		// The bound is a compile-time constant of the instance. Comparison
		// runs over the ordered integers, never through field wrap-around.
		bound := types.ToleranceBound(c.params.TolerancePercent, n)
		cmp := api.Cmp(c.C0, c.C1)
		isLess := api.IsZero(api.Add(cmp, 1))
		bigger := api.Select(isLess, c.C1, c.C0)
		smaller := api.Select(isLess, c.C0, c.C1)
		api.AssertIsLessOrEqual(api.Sub(bigger, smaller), bound)
	}

	// client_id enters no arithmetic relation; a product keeps a constraint
	// touching the wire so the statement layout always carries it.
	api.Mul(c.ClientID, c.ClientID)

	return nil
}

// leaf re-derives record i's commitment leaf in-circuit.
func (c *BalanceCircuit) leaf(api frontend.API, i int) (frontend.Variable, error) {
	switch c.params.Encoding {
	case fieldhash.EncodingLabelOnly:
		h, err := mimc.NewMiMC(api)
		if err != nil {
			return nil, err
		}
		h.Write(c.Labels[i])
		return h.Sum(), nil
	case fieldhash.EncodingFeatureBound:
		elems := make([]frontend.Variable, 0, c.params.FeatureDim+1)
		elems = append(elems, c.Features[i]...)
		elems = append(elems, c.Labels[i])
		return hashVector(api, elems)
	default:
		return nil, fmt.Errorf("unknown leaf encoding %q", c.params.Encoding)
	}
}

// hashVector mirrors fieldhash.VectorHash over circuit variables: sequences
// up to fieldhash.ChunkSize are hashed directly, longer ones chunked and the
// chunk digests folded recursively. Both sides must agree element for element
// or feature-bound roots diverge.
func hashVector(api frontend.API, elems []frontend.Variable) (frontend.Variable, error) {
	if len(elems) <= fieldhash.ChunkSize {
		h, err := mimc.NewMiMC(api)
		if err != nil {
			return nil, err
		}
		h.Write(elems...)
		return h.Sum(), nil
	}

	numChunks := (len(elems) + fieldhash.ChunkSize - 1) / fieldhash.ChunkSize
	digests := make([]frontend.Variable, 0, numChunks)
	for start := 0; start < len(elems); start += fieldhash.ChunkSize {
		end := start + fieldhash.ChunkSize
		if end > len(elems) {
			end = len(elems)
		}
		h, err := mimc.NewMiMC(api)
		if err != nil {
			return nil, err
		}
		h.Write(elems[start:end]...)
		digests = append(digests, h.Sum())
	}

	return hashVector(api, digests)
}
