package ports

import (
	"time"

	"farm-auth-server/internal/model"
	"farm-auth-server/internal/security"
)

type JWTServiceInterface interface {
	GenerateAccessRefreshTokens(userUUID string, isAdmin bool) (*model.TokensPair, error)
	VerifyAccessToken(tokenStr string) (*security.Claims, error)
	VerifyRefreshToken(tokenStr string) (*security.Claims, error)
	ParseExpiry(tokenStr string) (time.Time, error)
	RefreshTokenTTL() time.Duration
}
