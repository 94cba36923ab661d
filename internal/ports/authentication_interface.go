package ports

import (
	"context"

	"farm-auth-server/internal/model"
)

type AuthenticationService interface {
	Register(ctx context.Context, login string, password string) (*model.User, *model.TokensPair, error)
	Login(ctx context.Context, login string, password string) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error)
	Logout(ctx context.Context, accessToken string, refreshToken string)
	ChangePassword(ctx context.Context, userUUID string, currentPassword string, newPassword string, accessToken string, refreshToken string) error
}
