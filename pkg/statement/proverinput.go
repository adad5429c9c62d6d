package statement

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// ProverInput is the portable JSON form of a statement's witness, every value
// a decimal string. The key names are the interchange contract with external
// proving tooling and must not change.
type ProverInput struct {
	ClientID    string     `json:"client_id"`
	Root        string     `json:"root"`
	NPublic     string     `json:"N_public"`
	C0          string     `json:"c0"`
	C1          string     `json:"c1"`
	Bits        []string   `json:"bits"`
	Siblings    [][]string `json:"siblings"`
	PathIndices [][]string `json:"pathIndices"`
	Features    [][]string `json:"features,omitempty"`
}

// ProverInput renders the statement as its interchange document.
func (s *Statement) ProverInput() *ProverInput {
	n := len(s.proofs)
	in := &ProverInput{
		ClientID:    s.Claim.ClientID.String(),
		Root:        s.Claim.Root.String(),
		NPublic:     strconv.Itoa(s.Claim.NPublic),
		C0:          strconv.Itoa(s.Claim.C0),
		C1:          strconv.Itoa(s.Claim.C1),
		Bits:        make([]string, n),
		Siblings:    make([][]string, n),
		PathIndices: make([][]string, n),
	}

	for i, p := range s.proofs {
		in.Bits[i] = strconv.FormatInt(s.labels[i], 10)
		in.Siblings[i] = make([]string, len(p.Siblings))
		in.PathIndices[i] = make([]string, len(p.PathBits))
		for j := range p.Siblings {
			sib := p.Siblings[j]
			in.Siblings[i][j] = sib.BigInt(new(big.Int)).String()
			in.PathIndices[i][j] = strconv.Itoa(int(p.PathBits[j]))
		}
	}

	if s.features != nil {
		in.Features = make([][]string, n)
		for i, feats := range s.features {
			in.Features[i] = make([]string, len(feats))
			for j, f := range feats {
				in.Features[i][j] = f.String()
			}
		}
	}

	return in
}

// Marshal is the canonical serialization used by the CLI and test fixtures.
func (in *ProverInput) Marshal() ([]byte, error) {
	return json.MarshalIndent(in, "", "  ")
}

// ParseProverInput decodes an interchange document and re-derives the public
// claim from it.
func ParseProverInput(data []byte) (*ProverInput, *types.BalanceClaim, error) {
	var in ProverInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, nil, fmt.Errorf("decoding prover input: %w", err)
	}

	clientID, ok := new(big.Int).SetString(in.ClientID, 10)
	if !ok {
		return nil, nil, fmt.Errorf("prover input: malformed client_id %q", in.ClientID)
	}
	root, ok := new(big.Int).SetString(in.Root, 10)
	if !ok {
		return nil, nil, fmt.Errorf("prover input: malformed root %q", in.Root)
	}
	nPublic, err := strconv.Atoi(in.NPublic)
	if err != nil {
		return nil, nil, fmt.Errorf("prover input: malformed N_public %q", in.NPublic)
	}
	c0, err := strconv.Atoi(in.C0)
	if err != nil {
		return nil, nil, fmt.Errorf("prover input: malformed c0 %q", in.C0)
	}
	c1, err := strconv.Atoi(in.C1)
	if err != nil {
		return nil, nil, fmt.Errorf("prover input: malformed c1 %q", in.C1)
	}

	claim := &types.BalanceClaim{
		ClientID: clientID,
		Root:     root,
		NPublic:  nPublic,
		C0:       c0,
		C1:       c1,
	}
	return &in, claim, nil
}
