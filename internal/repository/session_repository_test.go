package repository_test

import (
	"context"
	"testing"
	"time"

	"farm-auth-server/internal/apperr"
	"farm-auth-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPutAndValidate(t *testing.T) {
	cache, mr := newTestCache(t)
	sessions := repository.NewSessionRepository(cache, time.Hour)
	ctx := context.Background()

	require.NoError(t, sessions.Put(ctx, "user-1", "refresh-1"))

	ok, err := sessions.Validate(ctx, "user-1", "refresh-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// TTL записи равен сроку жизни refresh токена
	assert.Equal(t, time.Hour, mr.TTL("session:user-1"))

	ok, err = sessions.Validate(ctx, "user-1", "другой токен")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRotationSupersedesOldToken(t *testing.T) {
	cache, _ := newTestCache(t)
	sessions := repository.NewSessionRepository(cache, time.Hour)
	ctx := context.Background()

	require.NoError(t, sessions.Put(ctx, "user-1", "refresh-1"))
	require.NoError(t, sessions.Put(ctx, "user-1", "refresh-2"))

	ok, err := sessions.Validate(ctx, "user-1", "refresh-1")
	require.NoError(t, err)
	assert.False(t, ok, "прежний refresh токен не должен оставаться текущим")

	ok, err = sessions.Validate(ctx, "user-1", "refresh-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionValidateUnknownUser(t *testing.T) {
	cache, _ := newTestCache(t)
	sessions := repository.NewSessionRepository(cache, time.Hour)

	ok, err := sessions.Validate(context.Background(), "нет такого", "refresh-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRemoveIsIdempotent(t *testing.T) {
	cache, _ := newTestCache(t)
	sessions := repository.NewSessionRepository(cache, time.Hour)
	ctx := context.Background()

	require.NoError(t, sessions.Put(ctx, "user-1", "refresh-1"))
	require.NoError(t, sessions.Remove(ctx, "user-1"))
	require.NoError(t, sessions.Remove(ctx, "user-1"))

	ok, err := sessions.Validate(ctx, "user-1", "refresh-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionValidateDegradesWhenCacheDown(t *testing.T) {
	cache, mr := newTestCache(t)
	sessions := repository.NewSessionRepository(cache, time.Hour)
	mr.Close()

	ok, err := sessions.Validate(context.Background(), "user-1", "refresh-1")
	assert.False(t, ok)
	assert.ErrorIs(t, err, apperr.ErrCacheUnavailable)

	// запись и удаление при недоступном Redis не роняют вызывающего
	assert.NoError(t, sessions.Put(context.Background(), "user-1", "refresh-1"))
	assert.NoError(t, sessions.Remove(context.Background(), "user-1"))
}
