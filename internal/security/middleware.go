package security

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"farm-auth-server/internal/apperr"
	"farm-auth-server/internal/model"
	"farm-auth-server/internal/util"
)

// RefreshTokenHeader : заголовок, в котором клиент может передать refresh
// токен рядом с истёкшим access токеном для прозрачного продления сессии
const RefreshTokenHeader = "X-Refresh-Token"

const (
	NewAccessTokenHeader  = "X-New-Access-Token"
	NewRefreshTokenHeader = "X-New-Refresh-Token"
)

// Интерфейсы объявлены на стороне потребителя, чтобы не тянуть сюда ports

type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error)
}

type LimiterChecker interface {
	Check(ctx context.Context, scopeKey string, window time.Duration, maxRequests int) *model.RateLimitResult
}

// JWTMiddleware : строгий вариант охраны маршрута.
// Валидный и не отозванный access токен пропускается; истёкший access
// токен вместе с refresh токеном из X-Refresh-Token прозрачно обменивается
// на новую пару (она возвращается клиенту в заголовках ответа); всё
// остальное — 401, клиент должен аутентифицироваться заново.
func JWTMiddleware(verifier TokenVerifier, revocations RevocationChecker, refresher TokenRefresher) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(verifier, revocations, refresher, next, false))
	}
}

// OptionalJWTMiddleware : вариант для маршрутов, которые персонализируют
// ответ для вошедших, но не должны отклонять анонимных. Любой отказ
// проверки просто оставляет запрос неаутентифицированным.
func OptionalJWTMiddleware(verifier TokenVerifier, revocations RevocationChecker, refresher TokenRefresher) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(verifier, revocations, refresher, next, true))
	}
}

func handleAuthentication(verifier TokenVerifier, revocations RevocationChecker, refresher TokenRefresher, next http.Handler, optional bool) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		reject := func(message string) {
			if optional {
				next.ServeHTTP(writer, request)
				return
			}
			http.Error(writer, message, http.StatusUnauthorized)
		}

		authorizationHeader := request.Header.Get("Authorization")
		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			reject("unauthorized")
			return
		}

		token := strings.TrimPrefix(authorizationHeader, "Bearer ")

		claims, err := verifier.VerifyAccessToken(token)
		if err == nil {
			if revocations.IsRevoked(request.Context(), token) {
				log.Printf("предъявлен отозванный access токен")
				reject("unauthorized")
				return
			}

			req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
			next.ServeHTTP(writer, req)
			return
		}

		// Refresh пробуем только после истечения срока: повреждённый или
		// отозванный токен продлевать нельзя
		if errors.Is(err, apperr.ErrTokenExpired) && refresher != nil {
			refreshToken := request.Header.Get(RefreshTokenHeader)
			if refreshToken != "" {
				if newClaims, tokens, renewErr := renewTokensPair(request.Context(), verifier, refresher, refreshToken); renewErr == nil {
					writer.Header().Set(NewAccessTokenHeader, tokens.AccessToken)
					writer.Header().Set(NewRefreshTokenHeader, tokens.RefreshToken)

					req := request.WithContext(context.WithValue(request.Context(), UserContextKey, newClaims))
					next.ServeHTTP(writer, req)
					return
				} else {
					log.Printf("прозрачное продление сессии не удалось: %v", renewErr)
				}
			}
		}

		log.Printf("невалидный токен: %v", err)
		reject("unauthorized")
	}
}

func renewTokensPair(ctx context.Context, verifier TokenVerifier, refresher TokenRefresher, refreshToken string) (*Claims, *model.TokensPair, error) {
	tokens, err := refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}

	claims, err := verifier.VerifyAccessToken(tokens.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("свежевыпущенный access токен не прошёл проверку: %w", err)
	}

	return claims, tokens, nil
}

// RateLimitMiddleware ограничивает частоту запросов по классу маршрута и IP.
// Заголовки X-RateLimit-Remaining и X-RateLimit-Reset ставятся и на
// пропущенных, и на отклонённых ответах, чтобы клиент мог сам притормозить.
func RateLimitMiddleware(limiter LimiterChecker, routeClass string, window time.Duration, maxRequests int) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			scopeKey := fmt.Sprintf("%s:%s", routeClass, clientIP(request))
			result := limiter.Check(request.Context(), scopeKey, window, maxRequests)

			writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			writer.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
				writer.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				util.HandleError(writer, apperr.ErrRateLimitExceeded.Error(), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

func clientIP(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}
