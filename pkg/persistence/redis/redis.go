package redis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zkfl-labs/balance-proof-go/pkg/persistence"
	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixCommitment  = "bp:commitment:"
	keySchemaVersion     = "bp:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Per-client index set for listing (Redis doesn't support prefix
	// iteration natively)
	keyPrefixClientIndex = "bp:commitments:index:"
)

// RedisStore is a commitment registry backed by Redis, suitable for
// cloud-native deployments where several services share one registry.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant
	// setups). If set, this prefix is prepended to all keys, e.g. "myapp:"
	// results in keys like "myapp:bp:commitment:42/...". If empty, keys use
	// the default "bp:" prefix.
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed commitment registry.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if cfg.KeyPrefix != "" {
		logger.Sugar().Infow("Redis commitment store initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	} else {
		logger.Sugar().Infow("Redis commitment store initialized", "address", cfg.Address, "db", cfg.DB)
	}

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisStore) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisStore) commitmentKey(clientID, root string) string {
	return r.prefixKey(fmt.Sprintf("%s%s/%s", keyPrefixCommitment, clientID, root))
}

func (r *RedisStore) clientIndexKey(clientID string) string {
	return r.prefixKey(keyPrefixClientIndex + clientID)
}

// initSchema initializes or validates the schema version
func (r *RedisStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveCommitment persists a commitment record
func (r *RedisStore) SaveCommitment(record *types.CommitmentRecord) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("commitment store is closed")
	}

	ctx := context.Background()

	data, err := persistence.MarshalCommitmentRecord(record)
	if err != nil {
		return fmt.Errorf("failed to marshal CommitmentRecord: %w", err)
	}

	// Store record and index entry in one pipeline
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.commitmentKey(record.ClientID, record.Root), data, 0)
	pipe.SAdd(ctx, r.clientIndexKey(record.ClientID), record.Root)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save CommitmentRecord: %w", err)
	}

	return nil
}

// LoadCommitment retrieves a commitment record
func (r *RedisStore) LoadCommitment(clientID, root string) (*types.CommitmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	ctx := context.Background()

	data, err := r.client.Get(ctx, r.commitmentKey(clientID, root)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load CommitmentRecord: %w", err)
	}

	record, err := persistence.UnmarshalCommitmentRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal CommitmentRecord: %w", err)
	}

	return record, nil
}

// ListCommitments returns a client's records sorted by creation time
func (r *RedisStore) ListCommitments(clientID string) ([]*types.CommitmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("commitment store is closed")
	}

	ctx := context.Background()
	indexKey := r.clientIndexKey(clientID)

	roots, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list commitment roots: %w", err)
	}

	if len(roots) == 0 {
		return []*types.CommitmentRecord{}, nil
	}

	keys := make([]string, len(roots))
	for i, root := range roots {
		keys[i] = r.commitmentKey(clientID, root)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch CommitmentRecords: %w", err)
	}

	records := make([]*types.CommitmentRecord, 0, len(values))
	for i, val := range values {
		if val == nil {
			// Key was in index but doesn't exist - clean up index
			r.client.SRem(ctx, indexKey, roots[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for CommitmentRecord", "key", keys[i])
			continue
		}

		record, err := persistence.UnmarshalCommitmentRecord([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal CommitmentRecord, skipping",
				"key", keys[i], "error", err)
			continue
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt < records[j].CreatedAt
		}
		return records[i].Root < records[j].Root
	})

	return records, nil
}

// DeleteCommitment removes a commitment record
func (r *RedisStore) DeleteCommitment(clientID, root string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("commitment store is closed")
	}

	ctx := context.Background()

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.commitmentKey(clientID, root))
	pipe.SRem(ctx, r.clientIndexKey(clientID), root)

	_, err := pipe.Exec(ctx)
	return err
}

// Close shuts down the store
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil // Already closed, idempotent
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis commitment store closed")
	return nil
}

// HealthCheck verifies the store is operational
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("commitment store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}
