package repository_test

import (
	"context"
	"testing"
	"time"

	"farm-auth-server/config"
	"farm-auth-server/internal/repository"
	"farm-auth-server/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T, accessTTL, refreshTTL string) *security.JWTService {
	t.Helper()

	service, err := security.NewJWTService(&config.JWTConfig{
		AccessSecretKey:  "test-access-secret",
		RefreshSecretKey: "test-refresh-secret",
		AccessTokenTTL:   accessTTL,
		RefreshTokenTTL:  refreshTTL,
		Issuer:           "test",
	})
	require.NoError(t, err)
	return service
}

func TestBlacklistRevokeAndCheck(t *testing.T) {
	cache, mr := newTestCache(t)
	jwtService := newTestJWTService(t, "15m", "720h")
	blacklist := repository.NewBlacklistRepository(cache, jwtService)
	ctx := context.Background()

	tokens, err := jwtService.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	assert.False(t, blacklist.IsRevoked(ctx, tokens.AccessToken))

	require.NoError(t, blacklist.Revoke(ctx, tokens.AccessToken))
	assert.True(t, blacklist.IsRevoked(ctx, tokens.AccessToken))

	// TTL записи не превышает остаток жизни токена
	ttl := mr.TTL("blacklist:" + tokens.AccessToken)
	assert.Greater(t, ttl, 14*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute)
}

func TestBlacklistExpiredTokenIsNoop(t *testing.T) {
	cache, mr := newTestCache(t)
	expiredService := newTestJWTService(t, "-1m", "-1m")
	blacklist := repository.NewBlacklistRepository(cache, expiredService)
	ctx := context.Background()

	tokens, err := expiredService.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	// истёкший токен защищать нечем: записи быть не должно
	require.NoError(t, blacklist.Revoke(ctx, tokens.AccessToken))
	assert.False(t, mr.Exists("blacklist:"+tokens.AccessToken))
}

func TestBlacklistRevokeMalformedToken(t *testing.T) {
	cache, _ := newTestCache(t)
	blacklist := repository.NewBlacklistRepository(cache, newTestJWTService(t, "15m", "720h"))

	err := blacklist.Revoke(context.Background(), "не токен")
	assert.Error(t, err)
}

func TestBlacklistFailsOpenWhenCacheDown(t *testing.T) {
	cache, mr := newTestCache(t)
	jwtService := newTestJWTService(t, "15m", "720h")
	blacklist := repository.NewBlacklistRepository(cache, jwtService)

	tokens, err := jwtService.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	mr.Close()

	// сбой Redis не должен ни ронять отзыв, ни разлогинивать всех
	assert.NoError(t, blacklist.Revoke(context.Background(), tokens.AccessToken))
	assert.False(t, blacklist.IsRevoked(context.Background(), tokens.AccessToken))
}
