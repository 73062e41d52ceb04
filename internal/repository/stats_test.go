package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/othello-viewer/internal/apperror"
	"github.com/rocketscienceinc/othello-viewer/internal/entity"
	"github.com/rocketscienceinc/othello-viewer/testing/suite"
)

func sampleStats() entity.Stats {
	return entity.Stats{
		entity.AgentGemini: {GamesPlayed: 10, Wins: 6, WinRatePercent: 60, IsTrained: true},
		entity.AgentLlama:  {GamesPlayed: 10, Wins: 4, WinRatePercent: 40},
		entity.AgentDify:   {},
	}
}

func TestStatsRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	statsRepo := NewStatsRepository(st.Storage, time.Hour)

	// When: Save is called with a snapshot
	err := statsRepo.Save(ctx, sampleStats())

	// Then: no error should be returned, and the key expires eventually
	require.NoError(t, err)

	ttl, err := st.Storage.TTL(ctx, statsKey).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func TestStatsRepository_Load(t *testing.T) {
	t.Run("Load_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		statsRepo := NewStatsRepository(st.Storage, time.Hour)

		// Given: a saved snapshot
		require.NoError(t, statsRepo.Save(ctx, sampleStats()))

		// When: Load is called
		stats, err := statsRepo.Load(ctx)

		// Then: the snapshot comes back unchanged
		require.NoError(t, err)
		assert.Equal(t, sampleStats(), stats)
	})

	t.Run("Load_NotCached", func(t *testing.T) {
		ctx, st := suite.New(t)

		statsRepo := NewStatsRepository(st.Storage, time.Hour)

		// When: Load is called on an empty database
		stats, err := statsRepo.Load(ctx)

		// Then: ErrStatsNotCached is returned
		require.ErrorIs(t, err, apperror.ErrStatsNotCached)
		assert.Nil(t, stats)
	})
}

func TestMemoryStatsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns ErrStatsNotCached before the first save", func(t *testing.T) {
		_, err := NewMemoryStatsRepository().Load(ctx)

		require.ErrorIs(t, err, apperror.ErrStatsNotCached)
	})

	t.Run("Returns a copy of the saved snapshot", func(t *testing.T) {
		// Given: a repository holding a snapshot
		statsRepo := NewMemoryStatsRepository()
		saved := sampleStats()
		require.NoError(t, statsRepo.Save(ctx, saved))

		// When: the caller mutates its own map after saving
		saved[entity.AgentDify] = entity.StatsRecord{GamesPlayed: 99}

		// Then: the stored snapshot is unaffected
		loaded, err := statsRepo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleStats(), loaded)
	})
}
