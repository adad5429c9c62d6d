package merkle

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// Commitment is a complete binary Merkle tree over an ordered, padded leaf
// sequence. Building it is the only way a dataset becomes tamper-evident:
// any change to any leaf changes Root.
type Commitment struct {
	// Leaves contains the full padded leaf level, 2^Depth entries.
	Leaves []fr.Element

	// NumRecords is the number of real (unpadded) leaves. Proofs can only be
	// generated for indices below it.
	NumRecords int

	// Depth is the tree depth; every inclusion proof has exactly Depth steps.
	Depth int

	// Root is the single top node binding the entire sequence.
	Root fr.Element

	// levels stores all tree levels for proof generation.
	// levels[0] = padded leaves, levels[Depth] = [root]
	levels [][]fr.Element
}

// InclusionProof is an ordered sibling path for one leaf. Verifying it means
// re-hashing the leaf up through Siblings using PathBits and comparing the
// result against a root.
type InclusionProof struct {
	// LeafIndex is the index of the proven leaf in the committed order.
	LeafIndex int

	// Siblings[i] is the sibling node at level i, leaf level first.
	Siblings []fr.Element

	// PathBits[i] is the direction at level i: 0 when the running node is the
	// left child, 1 when it is the right child. Only 0 and 1 are valid;
	// verification rejects anything else rather than coercing it.
	PathBits []uint8
}
