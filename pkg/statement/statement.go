// Package statement assembles prover statements: it turns a dataset and a
// balance claim into a commitment, a full witness assignment, and a portable
// prover-input document, then drives the Groth16 backend over them.
package statement

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"go.uber.org/zap"

	"github.com/zkfl-labs/balance-proof-go/pkg/balance"
	"github.com/zkfl-labs/balance-proof-go/pkg/circuit"
	"github.com/zkfl-labs/balance-proof-go/pkg/fieldhash"
	"github.com/zkfl-labs/balance-proof-go/pkg/merkle"
	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// ShapeError reports data whose dimensions do not match the builder's fixed
// circuit shape. Shape problems are rejected before any witness assembly.
type ShapeError struct {
	Field string
	Want  int
	Got   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("statement shape mismatch: %s should be %d, got %d", e.Field, e.Want, e.Got)
}

// RootMismatchError reports a claimed root that disagrees with the root
// derived from the dataset.
type RootMismatchError struct {
	Claimed string
	Derived string
}

func (e *RootMismatchError) Error() string {
	return fmt.Sprintf("claimed root %s does not match derived root %s", e.Claimed, e.Derived)
}

// Builder assembles statements of one fixed shape. The encoder configuration
// is checked against the circuit params at construction, so an encoder and a
// circuit that disagree on the leaf convention can never coexist in a builder.
type Builder struct {
	params  circuit.Params
	encoder *fieldhash.LeafEncoder
	logger  *zap.Logger
}

// NewBuilder creates a builder for the given circuit shape.
func NewBuilder(params circuit.Params, logger *zap.Logger) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	encoder, err := fieldhash.NewLeafEncoder(params.Encoding, params.FeatureDim)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{params: params, encoder: encoder, logger: logger}, nil
}

// Params returns the circuit shape this builder assembles for.
func (b *Builder) Params() circuit.Params {
	return b.params
}

// Statement is a fully assembled proving statement: the resolved public
// claim, the commitment it speaks about, and the witness assignment for the
// constraint system.
type Statement struct {
	Claim      *types.BalanceClaim
	Commitment *merkle.Commitment
	Assignment *circuit.BalanceCircuit

	labels   []int64
	features [][]*big.Int
	proofs   []*merkle.InclusionProof
}

// Proofs returns the per-record inclusion proofs backing the assignment.
func (s *Statement) Proofs() []*merkle.InclusionProof {
	return s.proofs
}

// Build assembles a statement. The dataset must have exactly the builder's
// record count; the claim is evaluated natively before any constraint data is
// produced, so a claim the circuit would reject fails here first, with a
// typed error naming what is wrong. A nil claim root is resolved to the
// derived root; a non-nil root must match it.
func (b *Builder) Build(dataset *types.Dataset, claim *types.BalanceClaim) (*Statement, error) {
	if dataset == nil {
		return nil, fmt.Errorf("nil dataset")
	}
	if claim == nil {
		return nil, fmt.Errorf("nil balance claim")
	}
	if claim.ClientID == nil {
		return nil, fmt.Errorf("balance claim has no client id")
	}
	if dataset.Size() != b.params.NumRecords {
		return nil, &ShapeError{Field: "records", Want: b.params.NumRecords, Got: dataset.Size()}
	}

	labels := dataset.Labels()
	if b.params.TolerancePercent >= 0 {
		tc := &types.ToleranceClaim{BalanceClaim: *claim, TolerancePercent: b.params.TolerancePercent}
		if err := balance.EvaluateTolerance(labels, tc); err != nil {
			return nil, err
		}
	} else {
		if err := balance.Evaluate(labels, claim); err != nil {
			return nil, err
		}
	}

	leaves := make([]fr.Element, dataset.Size())
	for i, r := range dataset.Records {
		leaf, err := b.encoder.Encode(r)
		if err != nil {
			return nil, err
		}
		leaves[i] = leaf
	}

	commitment, err := merkle.BuildCommitment(leaves, b.encoder.PaddingLeaf())
	if err != nil {
		return nil, err
	}

	root := commitment.Root.BigInt(new(big.Int))
	if claim.Root != nil && claim.Root.Cmp(root) != 0 {
		return nil, &RootMismatchError{Claimed: claim.Root.String(), Derived: root.String()}
	}

	resolved := &types.BalanceClaim{
		ClientID: new(big.Int).Set(claim.ClientID),
		Root:     root,
		NPublic:  claim.NPublic,
		C0:       claim.C0,
		C1:       claim.C1,
	}

	proofs := make([]*merkle.InclusionProof, dataset.Size())
	for i := range dataset.Records {
		proofs[i], err = commitment.GenerateProof(i)
		if err != nil {
			return nil, err
		}
	}

	assignment, err := b.assignment(dataset, resolved, commitment, proofs)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("assembled statement",
		zap.String("root", root.String()),
		zap.Int("records", dataset.Size()),
		zap.Int("c0", resolved.C0),
		zap.Int("c1", resolved.C1),
	)

	stmt := &Statement{
		Claim:      resolved,
		Commitment: commitment,
		Assignment: assignment,
		labels:     labels,
		proofs:     proofs,
	}
	if b.params.Encoding == fieldhash.EncodingFeatureBound {
		// Copied, not aliased, so later mutation of the caller's records
		// cannot skew the emitted prover input.
		stmt.features = make([][]*big.Int, dataset.Size())
		for i, r := range dataset.Records {
			stmt.features[i] = make([]*big.Int, len(r.Features))
			for j, feat := range r.Features {
				stmt.features[i][j] = new(big.Int).Set(feat)
			}
		}
	}
	return stmt, nil
}

func (b *Builder) assignment(dataset *types.Dataset, claim *types.BalanceClaim, c *merkle.Commitment, proofs []*merkle.InclusionProof) (*circuit.BalanceCircuit, error) {
	a, err := circuit.New(b.params)
	if err != nil {
		return nil, err
	}

	a.ClientID = claim.ClientID
	a.Root = claim.Root
	a.NPublic = claim.NPublic
	a.C0 = claim.C0
	a.C1 = claim.C1

	for i, r := range dataset.Records {
		a.Labels[i] = r.Label
		for j := 0; j < b.params.Depth; j++ {
			a.Siblings[i][j] = proofs[i].Siblings[j].BigInt(new(big.Int))
			a.PathIndices[i][j] = int(proofs[i].PathBits[j])
		}
		if b.params.Encoding == fieldhash.EncodingFeatureBound {
			if len(r.Features) != b.params.FeatureDim {
				return nil, &ShapeError{Field: fmt.Sprintf("record %d features", i), Want: b.params.FeatureDim, Got: len(r.Features)}
			}
			for j, feat := range r.Features {
				a.Features[i][j] = new(big.Int).Set(feat)
			}
		}
	}
	return a, nil
}
