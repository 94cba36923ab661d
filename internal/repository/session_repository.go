package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"farm-auth-server/internal/ports"
)

// SessionRepository хранит текущий refresh токен каждого пользователя.
// Ключ session:{userUUID}, значение — сам токен, TTL — срок жизни refresh
// токена. Одна живая запись на пользователя: перезапись при ротации делает
// прежний токен не текущим без какой-либо дополнительной координации.
type SessionRepository struct {
	cache      ports.CacheClient
	refreshTTL time.Duration
}

func NewSessionRepository(cache ports.CacheClient, refreshTTL time.Duration) *SessionRepository {
	return &SessionRepository{cache: cache, refreshTTL: refreshTTL}
}

// Put безусловно перезаписывает текущий refresh токен пользователя.
// Прежний токен при этом не попадает в чёрный список автоматически —
// вызывающий, знающий его значение, обязан отозвать его сам.
// При недоступном Redis запись пропускается с предупреждением: сессия
// останется подтверждаемой только подписью (деградация, не отказ).
func (r *SessionRepository) Put(ctx context.Context, userUUID string, refreshToken string) error {
	err := r.cache.SetWithTTL(ctx, r.key(userUUID), refreshToken, r.refreshTTL, ports.FailOpen)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	return nil
}

// Validate : true только если сохранённое значение в точности равно
// предъявленному токену. При недоступном Redis возвращает
// (false, apperr.ErrCacheUnavailable) — вызывающий решает, принять ли
// токен только по его собственной подписи и сроку жизни.
func (r *SessionRepository) Validate(ctx context.Context, userUUID string, refreshToken string) (bool, error) {
	stored, found, err := r.cache.Get(ctx, r.key(userUUID), ports.FailClosed)
	if err != nil {
		log.Printf("проверка сессии %s в деградированном режиме: %v", userUUID, err)
		return false, err
	}
	if !found {
		return false, nil
	}

	return stored == refreshToken, nil
}

// Remove удаляет сессию пользователя; идемпотентна
func (r *SessionRepository) Remove(ctx context.Context, userUUID string) error {
	return r.cache.Delete(ctx, r.key(userUUID), ports.FailOpen)
}

func (r *SessionRepository) key(userUUID string) string {
	return fmt.Sprintf("session:%s", userUUID)
}
