package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"farm-auth-server/internal/model"
	"farm-auth-server/internal/ports"
)

// RateLimitRepository : счётчик запросов с фиксированным окном в Redis.
// Ключ ratelimit:{scopeKey}, значение — счётчик, TTL — длина окна.
type RateLimitRepository struct {
	cache ports.CacheClient
}

func NewRateLimitRepository(cache ports.CacheClient) *RateLimitRepository {
	return &RateLimitRepository{cache: cache}
}

// Check инкрементирует счётчик и, если пост-инкрементное значение равно
// ровно 1, ставит TTL = window на тот же ключ. Порядок важен: из двух
// гонящихся первых запросов TTL поставит только тот, кто увидел единицу,
// остальные увидят большее значение и пропустят EXPIRE — ключ уже несёт
// TTL от победителя. Отдельная проверка существования ключа не нужна.
//
// При недоступном Redis запрос пропускается: отказ лимитера не должен
// превращаться в отказ всего защищаемого маршрута.
func (r *RateLimitRepository) Check(ctx context.Context, scopeKey string, window time.Duration, maxRequests int) *model.RateLimitResult {
	now := time.Now()
	key := r.key(scopeKey)

	// INCR возвращает минимум 1; ноль означает, что Redis недоступен
	count, _ := r.cache.Incr(ctx, key, ports.FailOpen)
	if count == 0 {
		log.Printf("лимитер пропускает запрос %s: кэш недоступен", scopeKey)
		return &model.RateLimitResult{
			Allowed:   true,
			Remaining: maxRequests,
			ResetAt:   now.Add(window),
		}
	}

	resetAt := now.Add(window)
	if count == 1 {
		if err := r.cache.Expire(ctx, key, window, ports.FailOpen); err != nil {
			log.Printf("не удалось поставить TTL на счётчик %s: %v", scopeKey, err)
		}
	} else {
		if ttl, err := r.cache.TTL(ctx, key, ports.FailOpen); err == nil && ttl > 0 {
			resetAt = now.Add(ttl)
		}
	}

	remaining := maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &model.RateLimitResult{
		Allowed:   count <= int64(maxRequests),
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func (r *RateLimitRepository) key(scopeKey string) string {
	return fmt.Sprintf("ratelimit:%s", scopeKey)
}
