package ports

import (
	"context"
	"time"
)

// FailurePolicy задаёт поведение операции с кэшем при недоступности Redis.
// Политика передаётся явно в каждой точке вызова, чтобы выбор
// fail-open/fail-closed был виден там, где он принимается.
type FailurePolicy int

const (
	// FailOpen : при недоступности кэша операция возвращает нулевое значение
	// без ошибки; сбой логируется внутри адаптера
	FailOpen FailurePolicy = iota

	// FailClosed : при недоступности кэша операция возвращает apperr.ErrCacheUnavailable
	FailClosed
)

// CacheClient : адаптер над разделяемым key-value хранилищем с TTL.
// Каждый вызов выполняется с ограниченным таймаутом; зависший Redis
// не должен вешать запрос.
type CacheClient interface {
	Get(ctx context.Context, key string, policy FailurePolicy) (value string, found bool, err error)
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration, policy FailurePolicy) error
	Delete(ctx context.Context, key string, policy FailurePolicy) error
	Exists(ctx context.Context, key string, policy FailurePolicy) (bool, error)
	Incr(ctx context.Context, key string, policy FailurePolicy) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, policy FailurePolicy) error
	TTL(ctx context.Context, key string, policy FailurePolicy) (time.Duration, error)
}
