package fieldhash

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// ChunkSize is the fixed arity of the vector-hash extension. Inputs longer
// than ChunkSize are split into ChunkSize-element chunks, each chunk is
// hashed, and the chunk digests are hashed again. The in-circuit encoder in
// pkg/circuit applies the identical rule; changing one side without the other
// silently changes every feature-bound root.
const ChunkSize = 16

// Encoding names the leaf-encoding convention. Every component that builds or
// verifies against the same root must be handed the same tag; two statements
// about "the same root" are only bound together if their leaf encodings match.
type Encoding string

const (
	// EncodingLabelOnly commits leaf = H(label).
	EncodingLabelOnly Encoding = "label-only"
	// EncodingFeatureBound commits leaf = VectorHash(features || label).
	EncodingFeatureBound Encoding = "feature-bound"
)

func (e Encoding) String() string {
	return string(e)
}

// Validate rejects unknown encoding tags.
func (e Encoding) Validate() error {
	switch e {
	case EncodingLabelOnly, EncodingFeatureBound:
		return nil
	default:
		return fmt.Errorf("unknown leaf encoding %q", string(e))
	}
}

// Hash computes the MiMC digest of a field element sequence. The canonical
// byte encoding of an fr.Element is always a reduced field element, so Write
// cannot fail here.
func Hash(elems ...fr.Element) fr.Element {
	h := mimc.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		_, _ = h.Write(b[:])
	}

	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// HashPair computes the digest of an internal tree node from its two children.
func HashPair(left, right fr.Element) fr.Element {
	return Hash(left, right)
}

// VectorHash hashes an arbitrary-length element vector under the fixed-arity
// chunking rule: sequences up to ChunkSize are hashed directly, longer ones
// are chunked, each chunk hashed, and the digests folded recursively.
func VectorHash(elems []fr.Element) fr.Element {
	if len(elems) <= ChunkSize {
		return Hash(elems...)
	}

	numChunks := (len(elems) + ChunkSize - 1) / ChunkSize
	digests := make([]fr.Element, 0, numChunks)
	for start := 0; start < len(elems); start += ChunkSize {
		end := start + ChunkSize
		if end > len(elems) {
			end = len(elems)
		}
		digests = append(digests, Hash(elems[start:end]...))
	}

	return VectorHash(digests)
}

// LeafEncoder maps one record to its commitment leaf under a fixed encoding.
type LeafEncoder struct {
	mode       Encoding
	featureDim int
}

// NewLeafEncoder creates an encoder for the given mode. featureDim is the
// fixed feature dimension D for the feature-bound mode and must be zero for
// the label-only mode; a mismatched configuration is a build-time error, not
// something to be discovered later through a non-matching root.
func NewLeafEncoder(mode Encoding, featureDim int) (*LeafEncoder, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	switch mode {
	case EncodingLabelOnly:
		if featureDim != 0 {
			return nil, fmt.Errorf("label-only encoding takes no feature dimension, got %d", featureDim)
		}
	case EncodingFeatureBound:
		if featureDim <= 0 {
			return nil, fmt.Errorf("feature-bound encoding requires a positive feature dimension, got %d", featureDim)
		}
	}
	return &LeafEncoder{mode: mode, featureDim: featureDim}, nil
}

// Mode returns the encoding tag.
func (e *LeafEncoder) Mode() Encoding {
	return e.mode
}

// FeatureDim returns the fixed feature dimension (zero for label-only).
func (e *LeafEncoder) FeatureDim() int {
	return e.featureDim
}

// Encode maps a record to its leaf. The encoder hashes whatever label value
// it is given; label domain checks belong to the balance predicate, where a
// violation is reported with its index instead of silently changing the root.
func (e *LeafEncoder) Encode(r *types.Record) (fr.Element, error) {
	if r == nil {
		return fr.Element{}, fmt.Errorf("cannot encode nil record")
	}

	var label fr.Element
	label.SetInt64(r.Label)

	switch e.mode {
	case EncodingLabelOnly:
		return Hash(label), nil
	case EncodingFeatureBound:
		if len(r.Features) != e.featureDim {
			return fr.Element{}, fmt.Errorf("record %d: feature dimension mismatch: want %d, got %d",
				r.Index, e.featureDim, len(r.Features))
		}
		elems := make([]fr.Element, 0, e.featureDim+1)
		for i, f := range r.Features {
			if f == nil {
				return fr.Element{}, fmt.Errorf("record %d: feature %d is nil", r.Index, i)
			}
			var el fr.Element
			el.SetBigInt(f)
			elems = append(elems, el)
		}
		elems = append(elems, label)
		return VectorHash(elems), nil
	default:
		return fr.Element{}, fmt.Errorf("unknown leaf encoding %q", string(e.mode))
	}
}

// PaddingLeaf returns the publicly known leaf used to pad the committed
// sequence to a full power of two: the encoding of an all-zero record.
func (e *LeafEncoder) PaddingLeaf() fr.Element {
	if e.mode == EncodingFeatureBound {
		elems := make([]fr.Element, e.featureDim+1)
		return VectorHash(elems)
	}
	var label fr.Element
	return Hash(label)
}
