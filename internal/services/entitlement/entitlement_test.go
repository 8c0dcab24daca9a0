package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirtydonny/annabot/internal/models"
)

type mockRepo struct {
	RegisterUserFunc func(ctx context.Context, id int64, username, fullName string) error
	IsEntitledFunc   func(ctx context.Context, id int64) (bool, error)
	ProfileFunc      func(ctx context.Context, id int64) (*models.Profile, error)
}

func (m *mockRepo) RegisterUser(ctx context.Context, id int64, username, fullName string) error {
	return m.RegisterUserFunc(ctx, id, username, fullName)
}

func (m *mockRepo) IsEntitled(ctx context.Context, id int64) (bool, error) {
	return m.IsEntitledFunc(ctx, id)
}

func (m *mockRepo) Profile(ctx context.Context, id int64) (*models.Profile, error) {
	return m.ProfileFunc(ctx, id)
}

// fakeCache — кеш в памяти для проверки попаданий и промахов.
type fakeCache struct {
	values map[string]bool
	sets   int
	fail   bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]bool{}}
}

func (c *fakeCache) Get(_ context.Context, key string, result any) (bool, error) {
	if c.fail {
		return false, errors.New("cache is down")
	}
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	*result.(*bool) = v
	return true, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if c.fail {
		return errors.New("cache is down")
	}
	c.values[key] = value.(bool)
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, key string) error {
	if c.fail {
		return errors.New("cache is down")
	}
	delete(c.values, key)
	return nil
}

func makeLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIsEntitled_CachesStorageResult(t *testing.T) {
	storageCalls := 0
	repo := &mockRepo{
		IsEntitledFunc: func(_ context.Context, id int64) (bool, error) {
			storageCalls++
			return true, nil
		},
	}
	cache := newFakeCache()
	svc := New(repo, cache, makeLogger())

	for i := 0; i < 3; i++ {
		entitled, err := svc.IsEntitled(context.Background(), 42)
		require.NoError(t, err)
		assert.True(t, entitled)
	}

	assert.Equal(t, 1, storageCalls)
	assert.Equal(t, 1, cache.sets)
}

func TestIsEntitled_CacheFailureFallsBackToStorage(t *testing.T) {
	repo := &mockRepo{
		IsEntitledFunc: func(_ context.Context, _ int64) (bool, error) {
			return true, nil
		},
	}
	cache := newFakeCache()
	cache.fail = true
	svc := New(repo, cache, makeLogger())

	entitled, err := svc.IsEntitled(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, entitled)
}

func TestIsEntitled_StorageError(t *testing.T) {
	repo := &mockRepo{
		IsEntitledFunc: func(_ context.Context, _ int64) (bool, error) {
			return false, errors.New("db is locked")
		},
	}
	svc := New(repo, newFakeCache(), makeLogger())

	_, err := svc.IsEntitled(context.Background(), 42)
	assert.Error(t, err)
}

func TestRegister_InvalidatesCachedEntitlement(t *testing.T) {
	repo := &mockRepo{
		RegisterUserFunc: func(_ context.Context, id int64, username, fullName string) error {
			require.Equal(t, int64(42), id)
			require.Equal(t, "anna_fan", username)
			require.Equal(t, "Anna Fan", fullName)
			return nil
		},
		IsEntitledFunc: func(_ context.Context, _ int64) (bool, error) {
			return true, nil
		},
	}
	cache := newFakeCache()
	cache.values["entitled:42"] = false

	svc := New(repo, cache, makeLogger())
	require.NoError(t, svc.Register(context.Background(), 42, "anna_fan", "Anna Fan"))

	entitled, err := svc.IsEntitled(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, entitled, "stale cached value must be dropped on register")
}

func TestProfile_PassesThrough(t *testing.T) {
	want := &models.Profile{
		User:         models.User{ID: 42, FullName: "Anna Fan"},
		MessageCount: 5,
	}
	repo := &mockRepo{
		ProfileFunc: func(_ context.Context, id int64) (*models.Profile, error) {
			require.Equal(t, int64(42), id)
			return want, nil
		},
	}
	svc := New(repo, newFakeCache(), makeLogger())

	got, err := svc.Profile(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
