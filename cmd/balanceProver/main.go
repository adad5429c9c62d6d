package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/zkfl-labs/balance-proof-go/pkg/balance"
	"github.com/zkfl-labs/balance-proof-go/pkg/circuit"
	"github.com/zkfl-labs/balance-proof-go/pkg/config"
	"github.com/zkfl-labs/balance-proof-go/pkg/fieldhash"
	"github.com/zkfl-labs/balance-proof-go/pkg/logger"
	"github.com/zkfl-labs/balance-proof-go/pkg/merkle"
	"github.com/zkfl-labs/balance-proof-go/pkg/persistence"
	badgerstore "github.com/zkfl-labs/balance-proof-go/pkg/persistence/badger"
	"github.com/zkfl-labs/balance-proof-go/pkg/persistence/memory"
	redisstore "github.com/zkfl-labs/balance-proof-go/pkg/persistence/redis"
	"github.com/zkfl-labs/balance-proof-go/pkg/statement"
	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

func main() {
	app := &cli.App{
		Name:  "balance-prover",
		Usage: "Dataset commitment and class-balance proving",
		Description: `Commits binary-labeled datasets to Merkle roots and proves class-balance
claims about them in zero knowledge.

This tool implements:
- MiMC Merkle commitments over labeled records
- Membership proof generation and batch verification
- Groth16 proofs that committed labels satisfy a balance claim
- A durable registry of published commitments`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "client-id",
				Aliases:  []string{"c"},
				Usage:    "Numeric client identifier bound into every statement",
				EnvVars:  []string{config.EnvProverClientID},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   "Leaf encoding: label-only or feature-bound",
				Value:   string(fieldhash.EncodingLabelOnly),
			},
			&cli.IntFlag{
				Name:  "feature-dim",
				Usage: "Feature dimension (feature-bound encoding only)",
			},
			&cli.IntFlag{
				Name:  "tolerance",
				Usage: "Imbalance tolerance percent; negative proves exact counts",
				Value: -1,
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   fmt.Sprintf("Commitment registry backend: %v", config.GetSupportedStoreTypes()),
				Value:   string(config.StoreTypeMemory),
				EnvVars: []string{config.EnvProverStoreType},
			},
			&cli.StringFlag{
				Name:    "store-path",
				Usage:   "Badger data directory",
				EnvVars: []string{config.EnvProverStorePath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port)",
				EnvVars: []string{config.EnvProverRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvProverRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number (0-15)",
				EnvVars: []string{config.EnvProverRedisDB},
			},
			&cli.StringFlag{
				Name:    "cache-dir",
				Usage:   "Directory for compiled circuit and key caches",
				Value:   ".balance-prover",
				EnvVars: []string{config.EnvProverCircuitCache},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvProverVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "commit",
				Usage: "Commit a dataset and register its root",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Usage: "Dataset CSV path", Required: true},
				},
				Action: runCommit,
			},
			{
				Name:  "prove",
				Usage: "Prove a balance claim over a committed dataset",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Usage: "Dataset CSV path", Required: true},
					&cli.StringFlag{Name: "proof-out", Usage: "Proof output path", Value: "balance.proof"},
					&cli.StringFlag{Name: "claim-out", Usage: "Claim output path", Value: "balance.claim.json"},
					&cli.StringFlag{Name: "witness-out", Usage: "Optional prover-input JSON output path"},
				},
				Action: runProve,
			},
			{
				Name:  "verify",
				Usage: "Verify a proof against its public claim",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "proof", Usage: "Proof path", Value: "balance.proof"},
					&cli.StringFlag{Name: "claim", Usage: "Claim path", Value: "balance.claim.json"},
				},
				Action: runVerify,
			},
			{
				Name:   "list",
				Usage:  "List registered commitments for the client",
				Action: runList,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// claimDoc is the on-disk form of a public claim, all values decimal strings.
type claimDoc struct {
	ClientID string `json:"client_id"`
	Root     string `json:"root"`
	NPublic  int    `json:"N_public"`
	C0       int    `json:"c0"`
	C1       int    `json:"c1"`
}

func parseProverConfig(c *cli.Context, numRecords int) (*config.ProverConfig, error) {
	cfg := &config.ProverConfig{
		ClientID:         c.String("client-id"),
		NumRecords:       numRecords,
		Encoding:         c.String("encoding"),
		FeatureDim:       c.Int("feature-dim"),
		TolerancePercent: c.Int("tolerance"),
		StoreType:        config.StoreType(c.String("store")),
		StorePath:        c.String("store-path"),
		RedisAddress:     c.String("redis-address"),
		RedisPassword:    c.String("redis-password"),
		RedisDB:          c.Int("redis-db"),
		CircuitCacheDir:  c.String("cache-dir"),
		Debug:            c.Bool("verbose"),
		Verbose:          c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
}

func newStore(cfg *config.ProverConfig, l *zap.Logger) (persistence.ICommitmentStore, error) {
	switch cfg.StoreType {
	case config.StoreTypeBadger:
		return badgerstore.NewBadgerStore(cfg.StorePath, l)
	case config.StoreTypeRedis:
		return redisstore.NewRedisStore(&redisstore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
	default:
		return memory.NewMemoryStore(), nil
	}
}

func circuitParams(cfg *config.ProverConfig) circuit.Params {
	return circuit.Params{
		NumRecords:       cfg.NumRecords,
		Depth:            merkle.DepthForSize(cfg.NumRecords),
		Encoding:         fieldhash.Encoding(cfg.Encoding),
		FeatureDim:       cfg.FeatureDim,
		TolerancePercent: cfg.TolerancePercent,
	}
}

func cachePath(cfg *config.ProverConfig, params circuit.Params) string {
	name := fmt.Sprintf("balance-n%d-d%d-%s", params.NumRecords, params.Depth, params.Encoding)
	if params.Encoding == fieldhash.EncodingFeatureBound {
		name += fmt.Sprintf("-f%d", params.FeatureDim)
	}
	if params.TolerancePercent >= 0 {
		name += fmt.Sprintf("-t%d", params.TolerancePercent)
	}
	return filepath.Join(cfg.CircuitCacheDir, name+".bin")
}

// loadCachedSystem restores the cached proving system for the shape and never
// compiles a fresh one. Keys minted after a proof was issued can only reject
// it, so verification fails fast when no cache exists.
func loadCachedSystem(cfg *config.ProverConfig, params circuit.Params, l *zap.Logger) (*statement.System, error) {
	path := cachePath(cfg, params)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no proving system cached for this shape (expected %s); run prove first or point --cache-dir at the prover's cache", path)
	}
	return statement.LoadSystem(path, params, l)
}

// loadOrSetup restores a cached proving system for the shape, or compiles and
// caches a fresh one.
func loadOrSetup(cfg *config.ProverConfig, params circuit.Params, l *zap.Logger) (*statement.System, error) {
	path := cachePath(cfg, params)

	if _, err := os.Stat(path); err == nil {
		system, err := statement.LoadSystem(path, params, l)
		if err == nil {
			return system, nil
		}
		l.Sugar().Warnw("Failed to load circuit cache, recompiling", "path", path, "error", err)
	}

	system, err := statement.Setup(params, l)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.CircuitCacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := system.Save(path); err != nil {
		return nil, err
	}

	return system, nil
}

func buildStatement(cfg *config.ProverConfig, dataset *types.Dataset, l *zap.Logger) (*statement.Statement, error) {
	clientID, ok := new(big.Int).SetString(cfg.ClientID, 10)
	if !ok {
		return nil, fmt.Errorf("client id must be a decimal integer, got %q", cfg.ClientID)
	}

	c0, c1, err := balance.Count(dataset.Labels())
	if err != nil {
		return nil, err
	}

	builder, err := statement.NewBuilder(circuitParams(cfg), l)
	if err != nil {
		return nil, err
	}

	return builder.Build(dataset, &types.BalanceClaim{
		ClientID: clientID,
		NPublic:  dataset.Size(),
		C0:       c0,
		C1:       c1,
	})
}

func registerCommitment(store persistence.ICommitmentStore, cfg *config.ProverConfig, stmt *statement.Statement) error {
	return store.SaveCommitment(&types.CommitmentRecord{
		ClientID:   cfg.ClientID,
		Root:       stmt.Claim.Root.String(),
		NumRecords: stmt.Commitment.NumRecords,
		Depth:      stmt.Commitment.Depth,
		Encoding:   cfg.Encoding,
		FeatureDim: cfg.FeatureDim,
		CreatedAt:  time.Now().Unix(),
	})
}

func runCommit(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	dataset, err := loadDataset(c.String("data"), c.Int("feature-dim"))
	if err != nil {
		return err
	}

	cfg, err := parseProverConfig(c, dataset.Size())
	if err != nil {
		return err
	}

	stmt, err := buildStatement(cfg, dataset, l)
	if err != nil {
		return err
	}

	store, err := newStore(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.HealthCheck(); err != nil {
		return fmt.Errorf("commitment store unhealthy: %w", err)
	}
	if err := registerCommitment(store, cfg, stmt); err != nil {
		return err
	}

	l.Sugar().Infow("Dataset committed",
		"client_id", cfg.ClientID,
		"root", stmt.Claim.Root.String(),
		"records", stmt.Commitment.NumRecords,
		"depth", stmt.Commitment.Depth,
		"c0", stmt.Claim.C0,
		"c1", stmt.Claim.C1)

	fmt.Println(stmt.Claim.Root.String())
	return nil
}

func runProve(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	dataset, err := loadDataset(c.String("data"), c.Int("feature-dim"))
	if err != nil {
		return err
	}

	cfg, err := parseProverConfig(c, dataset.Size())
	if err != nil {
		return err
	}

	stmt, err := buildStatement(cfg, dataset, l)
	if err != nil {
		return err
	}

	if out := c.String("witness-out"); out != "" {
		data, err := stmt.ProverInput().Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o600); err != nil {
			return fmt.Errorf("failed to write prover input: %w", err)
		}
		l.Sugar().Infow("Prover input written", "path", out)
	}

	params := circuitParams(cfg)
	system, err := loadOrSetup(cfg, params, l)
	if err != nil {
		return err
	}

	bundle, err := system.Prove(stmt)
	if err != nil {
		return err
	}

	// Prover sanity check before anything leaves the process.
	if err := system.Verify(bundle); err != nil {
		return fmt.Errorf("self-verification failed: %w", err)
	}

	if err := writeProof(c.String("proof-out"), bundle); err != nil {
		return err
	}
	if err := writeClaim(c.String("claim-out"), bundle.Claim); err != nil {
		return err
	}

	store, err := newStore(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := registerCommitment(store, cfg, stmt); err != nil {
		return err
	}

	l.Sugar().Infow("Balance proof generated",
		"session_id", bundle.SessionID,
		"root", bundle.Claim.Root.String(),
		"proof", c.String("proof-out"),
		"claim", c.String("claim-out"))

	return nil
}

func runVerify(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	claim, err := readClaim(c.String("claim"))
	if err != nil {
		return err
	}

	cfg, err := parseProverConfig(c, claim.NPublic)
	if err != nil {
		return err
	}

	proof, err := readProof(c.String("proof"))
	if err != nil {
		return err
	}

	system, err := loadCachedSystem(cfg, circuitParams(cfg), l)
	if err != nil {
		return err
	}

	bundle := &statement.ProofBundle{Claim: claim, Proof: proof}
	if err := system.Verify(bundle); err != nil {
		return fmt.Errorf("proof rejected: %w", err)
	}

	l.Sugar().Infow("Proof accepted",
		"client_id", claim.ClientID.String(),
		"root", claim.Root.String(),
		"N_public", claim.NPublic,
		"c0", claim.C0,
		"c1", claim.C1)

	fmt.Println("OK")
	return nil
}

func runList(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	// Listing needs no statement shape; a single placeholder record count
	// keeps the shared config validation happy.
	cfg, err := parseProverConfig(c, 1)
	if err != nil {
		return err
	}

	store, err := newStore(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListCommitments(cfg.ClientID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("no commitments registered")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s  records=%d depth=%d encoding=%s created=%s\n",
			r.Root, r.NumRecords, r.Depth, r.Encoding, time.Unix(r.CreatedAt, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

func writeProof(path string, bundle *statement.ProofBundle) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create proof file: %w", err)
	}
	defer file.Close()

	if _, err := bundle.Proof.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write proof: %w", err)
	}
	return nil
}

func readProof(path string) (groth16.Proof, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open proof file: %w", err)
	}
	defer file.Close()

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(file); err != nil {
		return nil, fmt.Errorf("failed to read proof: %w", err)
	}
	return proof, nil
}

func writeClaim(path string, claim *types.BalanceClaim) error {
	doc := claimDoc{
		ClientID: claim.ClientID.String(),
		Root:     claim.Root.String(),
		NPublic:  claim.NPublic,
		C0:       claim.C0,
		C1:       claim.C1,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal claim: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readClaim(path string) (*types.BalanceClaim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read claim file: %w", err)
	}

	var doc claimDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse claim file: %w", err)
	}

	clientID, ok := new(big.Int).SetString(doc.ClientID, 10)
	if !ok {
		return nil, fmt.Errorf("malformed client_id %q", doc.ClientID)
	}
	root, ok := new(big.Int).SetString(doc.Root, 10)
	if !ok {
		return nil, fmt.Errorf("malformed root %q", doc.Root)
	}

	return &types.BalanceClaim{
		ClientID: clientID,
		Root:     root,
		NPublic:  doc.NPublic,
		C0:       doc.C0,
		C1:       doc.C1,
	}, nil
}
