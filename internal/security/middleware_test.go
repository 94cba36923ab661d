package security_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"farm-auth-server/config"
	"farm-auth-server/internal/apperr"
	"farm-auth-server/internal/model"
	"farm-auth-server/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== ЗАГЛУШКИ =====

type fakeRevocations struct {
	revoked map[string]bool
}

func (f *fakeRevocations) IsRevoked(_ context.Context, token string) bool {
	return f.revoked[token]
}

type fakeRefresher struct {
	tokens     *model.TokensPair
	err        error
	calledWith string
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*model.TokensPair, error) {
	f.calledWith = refreshToken
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

type fakeLimiter struct {
	result *model.RateLimitResult
}

func (f *fakeLimiter) Check(_ context.Context, _ string, _ time.Duration, _ int) *model.RateLimitResult {
	return f.result
}

func claimsEchoHandler(t *testing.T, gotClaims **security.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := security.GetClaimsFromContext(r.Context()); err == nil {
			*gotClaims = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	service := newTestJWTService(t, "15m", "720h")
	tokens, err := service.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	var gotClaims *security.Claims
	guard := security.JWTMiddleware(service, &fakeRevocations{revoked: map[string]bool{}}, nil)
	handler := guard(claimsEchoHandler(t, &gotClaims))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "user-1", gotClaims.UserUUID)
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	service := newTestJWTService(t, "15m", "720h")

	guard := security.JWTMiddleware(service, &fakeRevocations{revoked: map[string]bool{}}, nil)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("запрос без токена не должен дойти до обработчика")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareRevokedToken(t *testing.T) {
	service := newTestJWTService(t, "15m", "720h")
	tokens, err := service.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	revocations := &fakeRevocations{revoked: map[string]bool{tokens.AccessToken: true}}
	guard := security.JWTMiddleware(service, revocations, nil)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("отозванный токен не должен пройти")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareTransparentRenewal(t *testing.T) {
	service := newTestJWTService(t, "15m", "720h")

	// истёкший access токен с теми же секретами
	expiredService, err := security.NewJWTService(&config.JWTConfig{
		AccessSecretKey:  "test-access-secret",
		RefreshSecretKey: "test-refresh-secret",
		AccessTokenTTL:   "-1m",
		RefreshTokenTTL:  "720h",
		Issuer:           "test",
	})
	require.NoError(t, err)

	expiredTokens, err := expiredService.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	freshTokens, err := service.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	refresher := &fakeRefresher{tokens: freshTokens}

	var gotClaims *security.Claims
	guard := security.JWTMiddleware(service, &fakeRevocations{revoked: map[string]bool{}}, refresher)
	handler := guard(claimsEchoHandler(t, &gotClaims))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+expiredTokens.AccessToken)
	req.Header.Set(security.RefreshTokenHeader, expiredTokens.RefreshToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, expiredTokens.RefreshToken, refresher.calledWith)
	assert.Equal(t, freshTokens.AccessToken, rec.Header().Get(security.NewAccessTokenHeader))
	assert.Equal(t, freshTokens.RefreshToken, rec.Header().Get(security.NewRefreshTokenHeader))
	require.NotNil(t, gotClaims)
	assert.Equal(t, "user-1", gotClaims.UserUUID)
}

func TestJWTMiddlewareRenewalFails(t *testing.T) {
	service := newTestJWTService(t, "15m", "720h")

	expiredService, err := security.NewJWTService(&config.JWTConfig{
		AccessSecretKey:  "test-access-secret",
		RefreshSecretKey: "test-refresh-secret",
		AccessTokenTTL:   "-1m",
		RefreshTokenTTL:  "720h",
		Issuer:           "test",
	})
	require.NoError(t, err)

	expiredTokens, err := expiredService.GenerateAccessRefreshTokens("user-1", false)
	require.NoError(t, err)

	refresher := &fakeRefresher{err: apperr.ErrRenewalInvalid}

	guard := security.JWTMiddleware(service, &fakeRevocations{revoked: map[string]bool{}}, refresher)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("неудавшееся продление не должно пропустить запрос")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+expiredTokens.AccessToken)
	req.Header.Set(security.RefreshTokenHeader, expiredTokens.RefreshToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTMiddlewareAnonymous(t *testing.T) {
	service := newTestJWTService(t, "15m", "720h")

	var gotClaims *security.Claims
	guard := security.OptionalJWTMiddleware(service, &fakeRevocations{revoked: map[string]bool{}}, nil)
	handler := guard(claimsEchoHandler(t, &gotClaims))

	// совсем без заголовка
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gotClaims)

	// с мусорным токеном — тоже пропускаем, но анонимно
	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer мусор")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gotClaims)
}

func TestRateLimitMiddlewareAllowed(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Second)
	limiter := &fakeLimiter{result: &model.RateLimitResult{Allowed: true, Remaining: 2, ResetAt: resetAt}}

	middleware := security.RateLimitMiddleware(limiter, "login", time.Minute, 3)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitMiddlewareRejected(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Second)
	limiter := &fakeLimiter{result: &model.RateLimitResult{Allowed: false, Remaining: 0, ResetAt: resetAt}}

	middleware := security.RateLimitMiddleware(limiter, "login", time.Minute, 3)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("отклонённый лимитером запрос не должен дойти до обработчика")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
