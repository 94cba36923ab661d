package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"farm-auth-server/internal/ports"
)

const blacklistSentinel = "1"

// BlacklistRepository : реестр отозванных токенов в Redis.
// Ключ blacklist:{token}, TTL — оставшееся время жизни токена, вычисленное
// из его собственного exp. Записи истекают сами, чистить их не нужно.
//
// Чёрный список — эшелонированная защита, а не единственная гарантия:
// при недоступном Redis токены всё равно ограничены своим сроком жизни,
// поэтому обе операции здесь fail-open.
type BlacklistRepository struct {
	cache      ports.CacheClient
	jwtService ports.JWTServiceInterface
}

func NewBlacklistRepository(cache ports.CacheClient, jwtService ports.JWTServiceInterface) *BlacklistRepository {
	return &BlacklistRepository{cache: cache, jwtService: jwtService}
}

// Revoke помечает токен отозванным до его естественного истечения.
// Уже истёкший токен — no-op: защищать нечего. Сбой Redis логируется
// и проглатывается.
func (r *BlacklistRepository) Revoke(ctx context.Context, token string) error {
	expiresAt, err := r.jwtService.ParseExpiry(token)
	if err != nil {
		return fmt.Errorf("не удалось отозвать токен: %w", err)
	}

	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return nil
	}

	if err := r.cache.SetWithTTL(ctx, r.key(token), blacklistSentinel, remaining, ports.FailOpen); err != nil {
		log.Printf("не удалось записать токен в чёрный список: %v", err)
	}
	return nil
}

// IsRevoked : false при недоступном Redis — сбой кэша не должен
// разлогинить всех пользователей разом
func (r *BlacklistRepository) IsRevoked(ctx context.Context, token string) bool {
	revoked, _ := r.cache.Exists(ctx, r.key(token), ports.FailOpen)
	return revoked
}

func (r *BlacklistRepository) key(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}
