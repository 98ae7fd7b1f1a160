package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConsumedCache — быстрый путь отклонения повторно предъявленных
// refresh-токенов: хэш помечается погашенным после успешного удаления
// строки в БД, и следующее предъявление отсекается без похода в Postgres.
//
// Кэш — строго best-effort: БД остаётся единственным источником истины,
// отсутствие отметки ничего не означает.
type ConsumedCache interface {
	// MarkConsumed помечает хэш погашенным на остаток срока жизни токена.
	MarkConsumed(ctx context.Context, hash string, ttl time.Duration) error
	// IsConsumed сообщает, был ли хэш уже погашен.
	IsConsumed(ctx context.Context, hash string) (bool, error)
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:consumed:".
func NewRedisCache(redisURL, prefix string) (ConsumedCache, error) {
	if prefix == "" {
		prefix = "auth:consumed:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(hash string) string { return c.prefix + hash }

func (c *redisCache) MarkConsumed(ctx context.Context, hash string, ttl time.Duration) error {
	if ttl <= 0 {
		// Просроченный токен и так отклонит БД; хранить отметку незачем.
		return nil
	}

	return c.rdb.Set(ctx, c.key(hash), "1", ttl).Err()
}

func (c *redisCache) IsConsumed(ctx context.Context, hash string) (bool, error) {
	_, err := c.rdb.Get(ctx, c.key(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (c *redisCache) Close() error { return c.rdb.Close() }
