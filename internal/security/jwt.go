package security

import (
	"errors"
	"fmt"
	"time"

	"farm-auth-server/config"
	"farm-auth-server/internal/apperr"
	"farm-auth-server/internal/model"
	"farm-auth-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

type Claims struct {
	UserUUID string `json:"user_uuid"`
	// ChainUUID : идентификатор цепочки refresh-токенов; заполняется
	// только в refresh токенах и меняется при каждой ротации
	ChainUUID string `json:"chain_uuid,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// JWTService подписывает и проверяет пары токенов.
// Access и refresh токены подписываются разными секретами, поэтому
// подменить один другим нельзя: подпись не сойдётся.
type JWTService struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
}

func NewJWTService(cfg *config.JWTConfig) (*JWTService, error) {
	accessTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга access_token_ttl: %w", err)
	}

	refreshTTL, err := time.ParseDuration(cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга refresh_token_ttl: %w", err)
	}

	if cfg.AccessSecretKey == cfg.RefreshSecretKey {
		return nil, fmt.Errorf("секреты access и refresh токенов должны различаться")
	}

	return &JWTService{
		accessSecret:    []byte(cfg.AccessSecretKey),
		refreshSecret:   []byte(cfg.RefreshSecretKey),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		issuer:          cfg.Issuer,
	}, nil
}

// GenerateAccessRefreshTokens выпускает новую пару токенов для пользователя.
// Функция чистая: никаких записей в хранилища, только подпись.
func (service *JWTService) GenerateAccessRefreshTokens(userUUID string, isAdmin bool) (*model.TokensPair, error) {
	now := time.Now()

	accessClaims := Claims{
		UserUUID: userUUID,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(service.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    service.issuer,
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, accessClaims).SignedString(service.accessSecret)
	if err != nil {
		return nil, util.LogError("ошибка подписи access токена", err)
	}

	refreshClaims := Claims{
		UserUUID:  userUUID,
		ChainUUID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(service.refreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    service.issuer,
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, refreshClaims).SignedString(service.refreshSecret)
	if err != nil {
		return nil, util.LogError("ошибка подписи refresh токена", err)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (service *JWTService) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return service.verify(tokenStr, service.accessSecret)
}

func (service *JWTService) VerifyRefreshToken(tokenStr string) (*Claims, error) {
	return service.verify(tokenStr, service.refreshSecret)
}

// verify проверяет подпись и срок жизни токена.
// Истёкший токен отличается от остальных отказов: только после
// apperr.ErrTokenExpired вызывающему имеет смысл пробовать refresh.
// Токен, предъявленный ровно в момент expiry, считается истёкшим.
func (service *JWTService) verify(tokenStr string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	jwtToken, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	switch {
	case err == nil && jwtToken.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, apperr.ErrTokenMalformed
	default:
		return nil, apperr.ErrTokenInvalid
	}
}

// ParseExpiry достает exp из токена без проверки подписи.
// Используется реестром отозванных токенов, чтобы посчитать оставшееся
// время жизни: TTL записи в чёрном списке равен ему.
func (service *JWTService) ParseExpiry(tokenStr string) (time.Time, error) {
	claims := &Claims{}

	_, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims)
	if err != nil {
		return time.Time{}, apperr.ErrTokenMalformed
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, apperr.ErrTokenMalformed
	}

	return claims.ExpiresAt.Time, nil
}

func (service *JWTService) RefreshTokenTTL() time.Duration {
	return service.refreshTokenTTL
}
