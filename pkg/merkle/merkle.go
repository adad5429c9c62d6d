package merkle

import (
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"

	"github.com/zkfl-labs/balance-proof-go/pkg/fieldhash"
)

// Levels below this size are hashed serially; goroutine fan-out only pays for
// itself on wide levels.
const parallelThreshold = 64

// MembershipError reports the first leaf whose inclusion proof failed to
// reproduce the root. One failing leaf rejects the whole batch.
type MembershipError struct {
	LeafIndex int
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("membership proof for leaf %d does not reproduce the root", e.LeafIndex)
}

// DepthForSize returns ceil(log2(n)), the tree depth for n leaves.
func DepthForSize(n int) int {
	depth := 0
	for size := 1; size < n; size *= 2 {
		depth++
	}
	return depth
}

// BuildCommitment builds a complete binary merkle tree over the ordered leaf
// sequence. The sequence is padded on the right with the fixed padding leaf up
// to 2^depth before the first level is hashed, so every node at every level
// has a real sibling and no level is ever odd. Construction is deterministic:
// the same leaf sequence always yields the same root.
func BuildCommitment(leaves []fr.Element, padding fr.Element) (*Commitment, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("cannot build commitment from empty leaf sequence")
	}

	depth := DepthForSize(len(leaves))
	paddedSize := 1 << depth

	padded := make([]fr.Element, paddedSize)
	copy(padded, leaves)
	for i := len(leaves); i < paddedSize; i++ {
		padded[i] = padding
	}

	levels := make([][]fr.Element, 0, depth+1)
	levels = append(levels, padded)

	current := padded
	for len(current) > 1 {
		current = hashLevel(current)
		levels = append(levels, current)
	}

	return &Commitment{
		Leaves:     padded,
		NumRecords: len(leaves),
		Depth:      depth,
		Root:       current[0],
		levels:     levels,
	}, nil
}

// hashLevel hashes sibling pairs (2k, 2k+1) of a full level into the parent
// level. Pairs are independent, so wide levels are split across workers;
// levels synchronize only at their boundary.
func hashLevel(prev []fr.Element) []fr.Element {
	next := make([]fr.Element, len(prev)/2)

	if len(next) < parallelThreshold {
		for k := range next {
			next[k] = fieldhash.HashPair(prev[2*k], prev[2*k+1])
		}
		return next
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(next) + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(next) {
			end = len(next)
		}
		if start >= end {
			break
		}
		g.Go(func() error {
			for k := start; k < end; k++ {
				next[k] = fieldhash.HashPair(prev[2*k], prev[2*k+1])
			}
			return nil
		})
	}
	_ = g.Wait()

	return next
}

// GenerateProof creates the inclusion proof for the leaf at the given index,
// reusing the already-built levels. At each level it records the sibling node
// and the direction bit (index mod 2), then moves to the parent index.
func (c *Commitment) GenerateProof(leafIndex int) (*InclusionProof, error) {
	if leafIndex < 0 || leafIndex >= c.NumRecords {
		return nil, fmt.Errorf("leaf index %d out of bounds (commitment has %d records)", leafIndex, c.NumRecords)
	}

	siblings := make([]fr.Element, 0, c.Depth)
	bits := make([]uint8, 0, c.Depth)

	index := leafIndex
	for level := 0; level < c.Depth; level++ {
		siblings = append(siblings, c.levels[level][index^1])
		bits = append(bits, uint8(index%2))
		index /= 2
	}

	return &InclusionProof{
		LeafIndex: leafIndex,
		Siblings:  siblings,
		PathBits:  bits,
	}, nil
}

// VerifyProof checks one leaf against a root. It re-derives a running hash
// from the leaf: at each level the direction bit selects whether the running
// node is the left or right child, and after exactly depth steps the result
// must equal the root. A proof whose path length differs from depth is
// rejected outright; walking a shorter path would let an internal node pass
// as a committed leaf. A direction bit outside {0,1} is rejected, never
// coerced.
func VerifyProof(leaf fr.Element, proof *InclusionProof, root fr.Element, depth int) bool {
	if proof == nil || len(proof.Siblings) != depth || len(proof.PathBits) != depth {
		return false
	}

	current := leaf
	for i, sibling := range proof.Siblings {
		switch proof.PathBits[i] {
		case 0:
			current = fieldhash.HashPair(current, sibling)
		case 1:
			current = fieldhash.HashPair(sibling, current)
		default:
			return false
		}
	}

	return current.Equal(&root)
}

// VerifyAll checks every leaf's proof against one shared root, the logical AND
// of the individual verifications. Verification order is irrelevant, so the
// checks fan out across workers; any single failure rejects the entire batch
// with a MembershipError naming the offending leaf.
func VerifyAll(leaves []fr.Element, proofs []*InclusionProof, root fr.Element, depth int) error {
	if len(leaves) != len(proofs) {
		return fmt.Errorf("leaf/proof count mismatch: %d leaves, %d proofs", len(leaves), len(proofs))
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(leaves) + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(leaves) {
			end = len(leaves)
		}
		if start >= end {
			break
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if !VerifyProof(leaves[i], proofs[i], root, depth) {
					return &MembershipError{LeafIndex: i}
				}
			}
			return nil
		})
	}

	return g.Wait()
}
