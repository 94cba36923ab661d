package ports

import (
	"context"
	"time"

	"farm-auth-server/internal/model"
)

// SessionStore : отображение "пользователь -> текущий refresh токен" в Redis.
// У одного пользователя не может быть больше одной живой сессии.
type SessionStore interface {
	Put(ctx context.Context, userUUID string, refreshToken string) error
	Validate(ctx context.Context, userUUID string, refreshToken string) (bool, error)
	Remove(ctx context.Context, userUUID string) error
}

// BlacklistRegistry : реестр отозванных токенов. Запись живёт ровно столько,
// сколько осталось жить самому токену, и удаляется из Redis по TTL.
type BlacklistRegistry interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) bool
}

// RateLimiter : счётчик запросов с фиксированным окном поверх Redis
type RateLimiter interface {
	Check(ctx context.Context, scopeKey string, window time.Duration, maxRequests int) *model.RateLimitResult
}
