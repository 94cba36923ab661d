package ports

import (
	"context"

	"farm-auth-server/internal/model"
)

// UserRepository : граница внешнего хранилища пользователей.
// Внутренности (Postgres, миграции) подсистему аутентификации не касаются.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	UpdatePassword(ctx context.Context, uuid string, newPasswordHash string) error
	ExistsByLogin(ctx context.Context, login string) (bool, error)
}

type UserService interface {
	GetUser(ctx context.Context, uuid string) (*model.User, error)
}
