// Package cache реализует кеш результатов проверки подписки поверх redis.
// Кеш опционален: при пустом адресе в конфиге используется заглушка Noop,
// и все проверки идут напрямую в хранилище.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dirtydonny/annabot/internal/config"
)

// Redis инкапсулирует соединение с redis.
type Redis struct {
	DB *redis.Client
}

// InitServer подключается к redis по настройкам из конфига.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Redis, error) {
	const op = "cache.InitServer"

	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Redis{DB: db}, nil
}

// Get читает значение по ключу в result. Возвращает false, если ключа нет.
func (c *Redis) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"

	val, err := c.DB.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение по ключу с заданным временем жизни.
func (c *Redis) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.DB.Set(ctx, key, jsonData, expiration).Err()
}

// Invalidate удаляет ключ.
func (c *Redis) Invalidate(ctx context.Context, key string) error {
	return c.DB.Del(ctx, key).Err()
}
