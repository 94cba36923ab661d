package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"farm-auth-server/config"
	"farm-auth-server/internal/apperr"
	"farm-auth-server/internal/ports"

	"github.com/redis/go-redis/v9"
)

// CacheRepository : адаптер над Redis. Каждая операция выполняется
// с ограниченным таймаутом; политика поведения при недоступности Redis
// передаётся явно в каждой точке вызова (ports.FailOpen / ports.FailClosed).
type CacheRepository struct {
	client *config.RedisClient
}

func NewCacheRepository(rdb *config.RedisClient) *CacheRepository {
	return &CacheRepository{rdb}
}

func (r *CacheRepository) Get(ctx context.Context, key string, policy ports.FailurePolicy) (string, bool, error) {
	opCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	val, err := r.client.Client.Get(opCtx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil // ключа нет, кэш при этом жив
	} else if err != nil {
		if degradeErr := r.degrade("GET", key, err, policy); degradeErr != nil {
			return "", false, degradeErr
		}
		return "", false, nil
	}

	return val, true, nil
}

func (r *CacheRepository) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration, policy ports.FailurePolicy) error {
	opCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Client.Set(opCtx, key, value, ttl).Err(); err != nil {
		return r.degrade("SET", key, err, policy)
	}
	return nil
}

func (r *CacheRepository) Delete(ctx context.Context, key string, policy ports.FailurePolicy) error {
	opCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Client.Del(opCtx, key).Err(); err != nil {
		return r.degrade("DEL", key, err, policy)
	}
	return nil
}

func (r *CacheRepository) Exists(ctx context.Context, key string, policy ports.FailurePolicy) (bool, error) {
	opCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	count, err := r.client.Client.Exists(opCtx, key).Result()
	if err != nil {
		if degradeErr := r.degrade("EXISTS", key, err, policy); degradeErr != nil {
			return false, degradeErr
		}
		return false, nil
	}
	return count > 0, nil
}

func (r *CacheRepository) Incr(ctx context.Context, key string, policy ports.FailurePolicy) (int64, error) {
	opCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	count, err := r.client.Client.Incr(opCtx, key).Result()
	if err != nil {
		if degradeErr := r.degrade("INCR", key, err, policy); degradeErr != nil {
			return 0, degradeErr
		}
		return 0, nil
	}
	return count, nil
}

func (r *CacheRepository) Expire(ctx context.Context, key string, ttl time.Duration, policy ports.FailurePolicy) error {
	opCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Client.Expire(opCtx, key, ttl).Err(); err != nil {
		return r.degrade("EXPIRE", key, err, policy)
	}
	return nil
}

func (r *CacheRepository) TTL(ctx context.Context, key string, policy ports.FailurePolicy) (time.Duration, error) {
	opCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	ttl, err := r.client.Client.TTL(opCtx, key).Result()
	if err != nil {
		if degradeErr := r.degrade("TTL", key, err, policy); degradeErr != nil {
			return 0, degradeErr
		}
		return 0, nil
	}
	return ttl, nil
}

// degrade переводит сбой Redis в выбранную политику: при FailClosed
// возвращает apperr.ErrCacheUnavailable, при FailOpen только логирует
func (r *CacheRepository) degrade(op string, key string, err error, policy ports.FailurePolicy) error {
	log.Printf("Redis недоступен (%s %s): %v", op, key, err)
	if policy == ports.FailClosed {
		return fmt.Errorf("%w: %v", apperr.ErrCacheUnavailable, err)
	}
	return nil
}

func (r *CacheRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.client.OpTimeout)
}
