package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultOpTimeout   = 2 * time.Second
	defaultDialRetries = 5
	defaultDialBackoff = 500 * time.Millisecond
)

type RedisClient struct {
	Client    *redis.Client
	OpTimeout time.Duration
}

// NewRedisClient подключается к Redis с ограниченным числом повторных попыток.
// Интервал между попытками удваивается после каждой неудачи. Если все попытки
// исчерпаны, возвращает ошибку — бесконечного цикла переподключения нет.
func NewRedisClient(cfg *RedisConfig) (*RedisClient, error) {
	opTimeout := defaultOpTimeout
	if cfg.OpTimeout != "" {
		parsed, err := time.ParseDuration(cfg.OpTimeout)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга op_timeout: %w", err)
		}
		opTimeout = parsed
	}

	retries := cfg.DialRetries
	if retries <= 0 {
		retries = defaultDialRetries
	}

	backoff := defaultDialBackoff
	if cfg.DialBackoff != "" {
		parsed, err := time.ParseDuration(cfg.DialBackoff)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга dial_backoff: %w", err)
		}
		backoff = parsed
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		lastErr = client.Ping(ctx).Err()
		cancel()

		if lastErr == nil {
			log.Println("Подключение к Redis успешно выполнено")
			return &RedisClient{Client: client, OpTimeout: opTimeout}, nil
		}

		log.Printf("попытка подключения к Redis %d/%d не удалась: %v", attempt, retries, lastErr)
		if attempt < retries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	if err := client.Close(); err != nil {
		log.Printf("ошибка при закрытии Redis клиента: %v", err)
	}
	return nil, fmt.Errorf("не удалось подключиться к Redis за %d попыток: %w", retries, lastErr)
}

func (r *RedisClient) Close() error {
	if err := r.Client.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия соединения с Redis: %w", err)
	}
	return nil
}
