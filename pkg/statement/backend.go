package statement

import (
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zkfl-labs/balance-proof-go/pkg/circuit"
	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// System is a compiled constraint system with its Groth16 key pair. One
// System proves statements of exactly one circuit shape.
type System struct {
	params circuit.Params
	ccs    constraint.ConstraintSystem
	pk     groth16.ProvingKey
	vk     groth16.VerifyingKey
	logger *zap.Logger
}

// ProofBundle carries one proof together with the public claim it attests to
// and a session id for log correlation.
type ProofBundle struct {
	SessionID string
	Claim     *types.BalanceClaim
	Proof     groth16.Proof
}

// Setup compiles the circuit for the given shape and runs the Groth16 setup.
// This is the expensive path; prefer LoadSystem when a cache file exists.
func Setup(params circuit.Params, logger *zap.Logger) (*System, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := circuit.New(params)
	if err != nil {
		return nil, err
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c)
	if err != nil {
		return nil, errors.Wrap(err, "compiling balance circuit")
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, errors.Wrap(err, "groth16 setup")
	}

	logger.Info("circuit compiled",
		zap.Int("records", params.NumRecords),
		zap.Int("depth", params.Depth),
		zap.String("encoding", params.Encoding.String()),
		zap.Int("constraints", ccs.GetNbConstraints()),
	)

	return &System{params: params, ccs: ccs, pk: pk, vk: vk, logger: logger}, nil
}

// Params returns the shape this system proves.
func (s *System) Params() circuit.Params {
	return s.params
}

// VerifyingKey exposes the verifying key for out-of-band distribution.
func (s *System) VerifyingKey() groth16.VerifyingKey {
	return s.vk
}

// Prove produces a proof for an assembled statement.
func (s *System) Prove(stmt *Statement) (*ProofBundle, error) {
	if stmt == nil {
		return nil, errors.New("nil statement")
	}
	if got := stmt.Claim.NPublic; got != s.params.NumRecords {
		return nil, &ShapeError{Field: "N_public", Want: s.params.NumRecords, Got: got}
	}

	w, err := frontend.NewWitness(stmt.Assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, errors.Wrap(err, "building witness")
	}

	proof, err := groth16.Prove(s.ccs, s.pk, w)
	if err != nil {
		return nil, errors.Wrap(err, "groth16 prove")
	}

	sessionID := uuid.NewString()
	s.logger.Info("proof generated",
		zap.String("session_id", sessionID),
		zap.String("root", stmt.Claim.Root.String()),
	)

	return &ProofBundle{SessionID: sessionID, Claim: stmt.Claim, Proof: proof}, nil
}

// Verify checks a proof against its public claim. The claim alone determines
// the public witness; nothing private is needed here.
func (s *System) Verify(bundle *ProofBundle) error {
	if bundle == nil || bundle.Claim == nil || bundle.Proof == nil {
		return errors.New("incomplete proof bundle")
	}

	pw, err := s.publicWitness(bundle.Claim)
	if err != nil {
		return err
	}
	if err := groth16.Verify(bundle.Proof, s.vk, pw); err != nil {
		return errors.Wrap(err, "groth16 verify")
	}

	s.logger.Info("proof verified",
		zap.String("session_id", bundle.SessionID),
		zap.String("root", bundle.Claim.Root.String()),
	)
	return nil
}

func (s *System) publicWitness(claim *types.BalanceClaim) (witness.Witness, error) {
	if claim.ClientID == nil || claim.Root == nil {
		return nil, errors.New("claim is missing client id or root")
	}

	a, err := circuit.New(s.params)
	if err != nil {
		return nil, err
	}
	a.ClientID = claim.ClientID
	a.Root = claim.Root
	a.NPublic = claim.NPublic
	a.C0 = claim.C0
	a.C1 = claim.C1

	pw, err := frontend.NewWitness(a, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, errors.Wrap(err, "building public witness")
	}
	return pw, nil
}

// Save writes the constraint system and key pair to one file, in read order.
func (s *System) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating cache file %s", path)
	}
	defer file.Close()

	if _, err := s.ccs.WriteTo(file); err != nil {
		return errors.Wrap(err, "writing constraint system")
	}
	if _, err := s.pk.WriteTo(file); err != nil {
		return errors.Wrap(err, "writing proving key")
	}
	if _, err := s.vk.WriteTo(file); err != nil {
		return errors.Wrap(err, "writing verifying key")
	}

	s.logger.Info("circuit cache written", zap.String("path", path))
	return nil
}

// LoadSystem restores a previously saved system. The caller supplies the
// params the cache was built for; a cache is only valid for its own shape, so
// cache file naming should include the shape.
func LoadSystem(path string, params circuit.Params, logger *zap.Logger) (*System, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache file %s", path)
	}
	defer file.Close()

	ccs := groth16.NewCS(ecc.BN254)
	if _, err := ccs.ReadFrom(file); err != nil {
		return nil, errors.Wrap(err, "reading constraint system")
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(file); err != nil {
		return nil, errors.Wrap(err, "reading proving key")
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(file); err != nil {
		return nil, errors.Wrap(err, "reading verifying key")
	}

	logger.Info("circuit cache loaded", zap.String("path", path))
	return &System{params: params, ccs: ccs, pk: pk, vk: vk, logger: logger}, nil
}
