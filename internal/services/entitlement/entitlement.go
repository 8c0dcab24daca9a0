// Package entitlement содержит бизнес-логику пробных периодов и подписок:
// регистрацию с выдачей триала, проверку права на общение и профиль.
// Проверки кешируются в redis с коротким TTL, чтобы не ходить в хранилище
// на каждое сообщение; при недоступном кеше работа продолжается без него.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dirtydonny/annabot/internal/lib/sl"
	"github.com/dirtydonny/annabot/internal/models"
)

// entitledTTL — время жизни закешированного результата проверки.
// Короткое, чтобы истечение пробного периода не задерживалось кешем
// дольше минуты.
const entitledTTL = time.Minute

// Repository описывает операции хранилища, нужные этому сервису.
type Repository interface {
	RegisterUser(ctx context.Context, id int64, username, fullName string) error
	IsEntitled(ctx context.Context, id int64) (bool, error)
	Profile(ctx context.Context, id int64) (*models.Profile, error)
}

// Cache описывает кеш значений по ключу.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует операции с подпиской поверх хранилища и кеша.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func entitledKey(id int64) string {
	return fmt.Sprintf("entitled:%d", id)
}

// Register регистрирует пользователя с пробным периодом.
// Повторные вызовы для того же идентификатора — no-op.
func (s *Service) Register(ctx context.Context, id int64, username, fullName string) error {
	if err := s.repo.RegisterUser(ctx, id, username, fullName); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, entitledKey(id)); err != nil {
		s.log.Warn("failed to invalidate entitlement cache", sl.UserID(id), sl.Err(err))
	}
	s.log.Info("user registered", sl.UserID(id))
	return nil
}

// IsEntitled сообщает, может ли пользователь сейчас общаться с ботом.
// Ошибки кеша не фатальны: ответ берется из хранилища.
func (s *Service) IsEntitled(ctx context.Context, id int64) (bool, error) {
	key := entitledKey(id)

	var cached bool
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("entitlement cache read failed", sl.UserID(id), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	entitled, err := s.repo.IsEntitled(ctx, id)
	if err != nil {
		return false, err
	}

	if err = s.cache.Set(ctx, key, entitled, entitledTTL); err != nil {
		s.log.Warn("entitlement cache write failed", sl.UserID(id), sl.Err(err))
	}
	return entitled, nil
}

// Profile возвращает профиль пользователя со счётчиком сообщений.
func (s *Service) Profile(ctx context.Context, id int64) (*models.Profile, error) {
	return s.repo.Profile(ctx, id)
}
