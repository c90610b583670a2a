package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/moderntrail/trail-engine/pkg/game"
)

// SessionTTL is how long an idle game session survives before redis
// evicts it. Every save refreshes the clock.
const SessionTTL = 7 * 24 * time.Hour

// RedisService implements the Storage interface using Redis
type RedisService struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisService implements Storage interface
var _ Storage = (*RedisService)(nil)

// NewRedisService creates a new Redis service instance
func NewRedisService(redisURL string, logger *slog.Logger) *RedisService {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisService{
		client: rdb,
		logger: logger,
	}
}

func gameStateKey(id uuid.UUID) string {
	return "game:" + id.String()
}

func (r *RedisService) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisService) SaveGameState(ctx context.Context, id uuid.UUID, gs *game.GameState) error {
	if gs == nil {
		return fmt.Errorf("game state cannot be nil")
	}

	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	key := gameStateKey(id)
	if err := r.client.Set(ctx, key, data, SessionTTL).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", key, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}

	r.logger.Debug("Game state saved", "key", key, "day", gs.Day)
	return nil
}

func (r *RedisService) LoadGameState(ctx context.Context, id uuid.UUID) (*game.GameState, error) {
	key := gameStateKey(id)
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Debug("Game state not found", "key", key)
			return nil, nil // Not found is not an error
		}
		r.logger.Error("Redis GET failed", "key", key, "error", err)
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var gs game.GameState
	if err := json.Unmarshal([]byte(cmd.Val()), &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	r.logger.Debug("Game state loaded", "key", key, "day", gs.Day)
	return &gs, nil
}

func (r *RedisService) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	key := gameStateKey(id)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Redis DEL failed", "key", key, "error", err)
		return fmt.Errorf("redis del failed: %w", err)
	}

	r.logger.Debug("Game state deleted", "key", key)
	return nil
}

func (r *RedisService) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisService) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
