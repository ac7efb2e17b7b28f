package availability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store persists availability configuration as JSON documents in Redis.
// Missing keys yield defaults so slot listings keep working before a
// recruiter has configured anything.
type Store struct {
	redis *redis.Client
}

// NewStore creates an availability config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func configKey(kind Kind) string {
	return fmt.Sprintf("booking:availability:%s", kind)
}

const blocksKey = "booking:blocks"

// GetConfig retrieves the config for a booking kind, returning defaults if
// none is stored or Redis was never wired.
func (s *Store) GetConfig(ctx context.Context, kind Kind) (*Config, error) {
	if s == nil || s.redis == nil {
		return DefaultConfig(kind), nil
	}
	data, err := s.redis.Get(ctx, configKey(kind)).Bytes()
	if err == redis.Nil {
		return DefaultConfig(kind), nil
	}
	if err != nil {
		return nil, fmt.Errorf("availability: get config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("availability: unmarshal config: %w", err)
	}
	cfg.Kind = kind
	return &cfg, nil
}

// SetConfig validates and saves the config for its booking kind.
func (s *Store) SetConfig(ctx context.Context, cfg *Config) error {
	if s == nil || s.redis == nil {
		return fmt.Errorf("availability: config store unavailable")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("availability: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, configKey(cfg.Kind), data, 0).Err(); err != nil {
		return fmt.Errorf("availability: set config: %w", err)
	}
	return nil
}

// GetBlocks retrieves the shared blocking rules, returning defaults if none
// are stored.
func (s *Store) GetBlocks(ctx context.Context) (*Blocks, error) {
	if s == nil || s.redis == nil {
		return DefaultBlocks(), nil
	}
	data, err := s.redis.Get(ctx, blocksKey).Bytes()
	if err == redis.Nil {
		return DefaultBlocks(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("availability: get blocks: %w", err)
	}

	var b Blocks
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("availability: unmarshal blocks: %w", err)
	}
	return &b, nil
}

// SetBlocks validates and saves the blocking rules.
func (s *Store) SetBlocks(ctx context.Context, b *Blocks) error {
	if s == nil || s.redis == nil {
		return fmt.Errorf("availability: config store unavailable")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("availability: marshal blocks: %w", err)
	}
	if err := s.redis.Set(ctx, blocksKey, data, 0).Err(); err != nil {
		return fmt.Errorf("availability: set blocks: %w", err)
	}
	return nil
}
