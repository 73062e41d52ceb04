package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/othello-viewer/internal/apperror"
	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

const statsKey = "stats:snapshot"

// StatsRepository keeps the last stats snapshot fetched from the arena.
// It is a fallback for display only; the arena stays the source of truth.
type StatsRepository interface {
	Save(ctx context.Context, stats entity.Stats) error
	Load(ctx context.Context) (entity.Stats, error)
}

type dbStats struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsRepository(client *redis.Client, ttl time.Duration) StatsRepository {
	return &dbStats{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbStats) Save(ctx context.Context, stats entity.Stats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("could not marshal stats: %w", err)
	}

	if err = that.client.Set(ctx, statsKey, statsJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set stats: %w", err)
	}

	return nil
}

func (that *dbStats) Load(ctx context.Context) (entity.Stats, error) {
	response, err := that.client.Get(ctx, statsKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrStatsNotCached
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	var stats entity.Stats
	if err = json.Unmarshal([]byte(response), &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	return stats, nil
}

type memoryStats struct {
	mu    sync.RWMutex
	stats entity.Stats
}

// NewMemoryStatsRepository - process-local repository used when Redis is disabled.
func NewMemoryStatsRepository() StatsRepository {
	return &memoryStats{}
}

func (that *memoryStats) Save(_ context.Context, stats entity.Stats) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stats = stats.Clone()

	return nil
}

func (that *memoryStats) Load(_ context.Context) (entity.Stats, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.stats == nil {
		return nil, apperror.ErrStatsNotCached
	}

	return that.stats.Clone(), nil
}
