package config

import (
	"fmt"

	"github.com/zkfl-labs/balance-proof-go/pkg/fieldhash"
)

// Environment variable names for prover configuration
const (
	EnvProverClientID      = "BP_CLIENT_ID"
	EnvProverStoreType     = "BP_STORE_TYPE"
	EnvProverStorePath     = "BP_STORE_PATH"
	EnvProverRedisAddress  = "BP_REDIS_ADDRESS"
	EnvProverRedisPassword = "BP_REDIS_PASSWORD"
	EnvProverRedisDB       = "BP_REDIS_DB"
	EnvProverCircuitCache  = "BP_CIRCUIT_CACHE_DIR"
	EnvProverVerbose       = "BP_VERBOSE"
)

// StoreType names a commitment registry backend.
type StoreType string

func (s StoreType) String() string {
	return string(s)
}

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeBadger StoreType = "badger"
	StoreTypeRedis  StoreType = "redis"
)

// ProverConfig represents the complete configuration for the prover CLI.
type ProverConfig struct {
	// Client identity
	ClientID string `json:"client_id"`

	// Statement shape
	NumRecords       int    `json:"num_records"`
	Encoding         string `json:"encoding"`
	FeatureDim       int    `json:"feature_dim"`
	TolerancePercent int    `json:"tolerance_percent"` // negative disables

	// Commitment registry
	StoreType     StoreType `json:"store_type"`
	StorePath     string    `json:"store_path"` // badger data directory
	RedisAddress  string    `json:"redis_address"`
	RedisPassword string    `json:"redis_password,omitempty"`
	RedisDB       int       `json:"redis_db"`

	// Circuit artifact cache
	CircuitCacheDir string `json:"circuit_cache_dir"`

	// Operational settings
	Debug   bool `json:"debug"`
	Verbose bool `json:"verbose"`
}

// Validate validates the prover configuration.
func (c *ProverConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client id cannot be empty")
	}

	if c.NumRecords < 1 {
		return fmt.Errorf("record count must be positive, got %d", c.NumRecords)
	}

	encoding := fieldhash.Encoding(c.Encoding)
	if err := encoding.Validate(); err != nil {
		return err
	}
	if encoding == fieldhash.EncodingLabelOnly && c.FeatureDim != 0 {
		return fmt.Errorf("label-only encoding takes no feature dimension, got %d", c.FeatureDim)
	}
	if encoding == fieldhash.EncodingFeatureBound && c.FeatureDim <= 0 {
		return fmt.Errorf("feature-bound encoding requires a positive feature dimension, got %d", c.FeatureDim)
	}

	if c.TolerancePercent > 100 {
		return fmt.Errorf("tolerance percent out of range: %d", c.TolerancePercent)
	}

	switch c.StoreType {
	case StoreTypeMemory:
	case StoreTypeBadger:
		if c.StorePath == "" {
			return fmt.Errorf("badger store requires a data path")
		}
	case StoreTypeRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("redis store requires an address")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("redis db must be between 0-15, got %d", c.RedisDB)
		}
	default:
		return fmt.Errorf("unsupported store type %q. Supported: %s, %s, %s",
			c.StoreType, StoreTypeMemory, StoreTypeBadger, StoreTypeRedis)
	}

	return nil
}

// GetSupportedStoreTypes returns all supported registry backends.
func GetSupportedStoreTypes() []StoreType {
	return []StoreType{StoreTypeMemory, StoreTypeBadger, StoreTypeRedis}
}
