package fieldhash

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

func randomElements(n int) []fr.Element {
	elems := make([]fr.Element, n)
	for i := range elems {
		_, _ = elems[i].SetRandom()
	}
	return elems
}

func TestHashDeterminism(t *testing.T) {
	elems := randomElements(3)

	h1 := Hash(elems...)
	h2 := Hash(elems...)
	require.True(t, h1.Equal(&h2))
}

func TestHashDistinctInputs(t *testing.T) {
	var a, b fr.Element
	a.SetUint64(0)
	b.SetUint64(1)

	ha := Hash(a)
	hb := Hash(b)
	require.False(t, ha.Equal(&hb))
}

// TestHashPairOrderMatters verifies left/right position is part of the digest,
// which is what makes direction bits meaningful
func TestHashPairOrderMatters(t *testing.T) {
	elems := randomElements(2)

	lr := HashPair(elems[0], elems[1])
	rl := HashPair(elems[1], elems[0])
	require.False(t, lr.Equal(&rl))
}

func TestVectorHashShortInput(t *testing.T) {
	elems := randomElements(ChunkSize)

	direct := Hash(elems...)
	vector := VectorHash(elems)
	require.True(t, direct.Equal(&vector), "inputs up to ChunkSize hash directly")
}

func TestVectorHashChunking(t *testing.T) {
	elems := randomElements(ChunkSize + 5)

	// Manual two-level composition: hash each chunk, then the chunk digests
	first := Hash(elems[:ChunkSize]...)
	second := Hash(elems[ChunkSize:]...)
	expected := Hash(first, second)

	got := VectorHash(elems)
	require.True(t, expected.Equal(&got))
}

func TestVectorHashDeterminism(t *testing.T) {
	elems := randomElements(3*ChunkSize + 1)

	h1 := VectorHash(elems)
	h2 := VectorHash(elems)
	require.True(t, h1.Equal(&h2))
}

func TestEncodingValidate(t *testing.T) {
	require.NoError(t, EncodingLabelOnly.Validate())
	require.NoError(t, EncodingFeatureBound.Validate())
	require.Error(t, Encoding("poseidon-16").Validate())
	require.Error(t, Encoding("").Validate())
}

func TestNewLeafEncoderConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mode    Encoding
		dim     int
		wantErr bool
	}{
		{"Label-only", EncodingLabelOnly, 0, false},
		{"Label-only with dimension", EncodingLabelOnly, 4, true},
		{"Feature-bound", EncodingFeatureBound, 8, false},
		{"Feature-bound without dimension", EncodingFeatureBound, 0, true},
		{"Unknown mode", Encoding("keccak"), 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := NewLeafEncoder(tc.mode, tc.dim)
			if tc.wantErr {
				require.Error(t, err)
				require.Nil(t, enc)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.mode, enc.Mode())
				require.Equal(t, tc.dim, enc.FeatureDim())
			}
		})
	}
}

func TestEncodeLabelOnly(t *testing.T) {
	enc, err := NewLeafEncoder(EncodingLabelOnly, 0)
	require.NoError(t, err)

	leaf0, err := enc.Encode(&types.Record{Index: 0, Label: 0})
	require.NoError(t, err)
	leaf1, err := enc.Encode(&types.Record{Index: 1, Label: 1})
	require.NoError(t, err)

	require.False(t, leaf0.Equal(&leaf1))

	// Leaf is exactly H(label)
	var one fr.Element
	one.SetUint64(1)
	expected := Hash(one)
	require.True(t, expected.Equal(&leaf1))
}

func TestEncodeFeatureBound(t *testing.T) {
	const dim = 4
	enc, err := NewLeafEncoder(EncodingFeatureBound, dim)
	require.NoError(t, err)

	features := []*big.Int{big.NewInt(10), big.NewInt(20), big.NewInt(30), big.NewInt(40)}
	rec := &types.Record{Index: 0, Label: 1, Features: features}

	leaf, err := enc.Encode(rec)
	require.NoError(t, err)

	// Leaf is VectorHash(features || label)
	elems := make([]fr.Element, 0, dim+1)
	for _, f := range features {
		var el fr.Element
		el.SetBigInt(f)
		elems = append(elems, el)
	}
	var label fr.Element
	label.SetUint64(1)
	elems = append(elems, label)
	expected := VectorHash(elems)
	require.True(t, expected.Equal(&leaf))
}

func TestEncodeFeatureDimensionMismatch(t *testing.T) {
	enc, err := NewLeafEncoder(EncodingFeatureBound, 4)
	require.NoError(t, err)

	rec := &types.Record{Index: 2, Label: 0, Features: []*big.Int{big.NewInt(1)}}
	_, err = enc.Encode(rec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dimension mismatch")
}

// TestCrossEncodingRejection verifies that the same record committed under
// different encodings yields different leaves, so verification against the
// wrong encoding's expected leaves fails rather than silently passing
func TestCrossEncodingRejection(t *testing.T) {
	labelEnc, err := NewLeafEncoder(EncodingLabelOnly, 0)
	require.NoError(t, err)
	featEnc, err := NewLeafEncoder(EncodingFeatureBound, 2)
	require.NoError(t, err)

	rec := &types.Record{Index: 0, Label: 1, Features: []*big.Int{big.NewInt(0), big.NewInt(0)}}

	leafA, err := labelEnc.Encode(rec)
	require.NoError(t, err)
	leafB, err := featEnc.Encode(rec)
	require.NoError(t, err)

	require.False(t, leafA.Equal(&leafB))
	padA := labelEnc.PaddingLeaf()
	padB := featEnc.PaddingLeaf()
	require.False(t, padA.Equal(&padB))
}

func TestPaddingLeaf(t *testing.T) {
	enc, err := NewLeafEncoder(EncodingLabelOnly, 0)
	require.NoError(t, err)

	// Padding leaf is the encoding of an all-zero record
	zeroLeaf, err := enc.Encode(&types.Record{})
	require.NoError(t, err)
	pad := enc.PaddingLeaf()
	require.True(t, zeroLeaf.Equal(&pad))

	const dim = 3
	featEnc, err := NewLeafEncoder(EncodingFeatureBound, dim)
	require.NoError(t, err)

	zeros := []*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0)}
	zeroFeatLeaf, err := featEnc.Encode(&types.Record{Features: zeros})
	require.NoError(t, err)
	featPad := featEnc.PaddingLeaf()
	require.True(t, zeroFeatLeaf.Equal(&featPad))
}
