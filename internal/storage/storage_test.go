package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirtydonny/annabot/internal/models"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestRegisterUser_TrialEntitlesImmediately(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterUser(ctx, 42, "testuser", "Test User"))

	entitled, err := s.IsEntitled(ctx, 42)
	require.NoError(t, err)
	assert.True(t, entitled)
}

func TestRegisterUser_Idempotent(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterUser(ctx, 1, "first", "First"))

	before, err := s.Profile(ctx, 1)
	require.NoError(t, err)

	// Повторная регистрация не меняет ни имя, ни срок подписки.
	require.NoError(t, s.RegisterUser(ctx, 1, "second", "Second"))

	after, err := s.Profile(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, "first", after.Username)
	assert.Equal(t, "First", after.FullName)
	assert.Equal(t, before.SubscribedUntil, after.SubscribedUntil)
}

func TestIsEntitled(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	today := time.Now().Format("2006-01-02")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	tests := []struct {
		name            string
		userID          int64
		isSubscribed    bool
		subscribedUntil string
		want            bool
	}{
		{
			name:            "expiry today still entitled",
			userID:          10,
			isSubscribed:    true,
			subscribedUntil: today,
			want:            true,
		},
		{
			name:            "expiry yesterday not entitled",
			userID:          11,
			isSubscribed:    true,
			subscribedUntil: yesterday,
			want:            false,
		},
		{
			name:            "flag off not entitled",
			userID:          12,
			isSubscribed:    false,
			subscribedUntil: today,
			want:            false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.DB.ExecContext(ctx,
				`INSERT INTO users (user_id, username, full_name, is_subscribed, subscribed_until)
				 VALUES (?, ?, ?, ?, ?)`,
				tt.userID, "u", "U", tt.isSubscribed, tt.subscribedUntil)
			require.NoError(t, err)

			got, err := s.IsEntitled(ctx, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown user not entitled", func(t *testing.T) {
		got, err := s.IsEntitled(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, got)
	})
}

// Колонки DATE и TIMESTAMP драйвер возвращает как time.Time, а не строки.
// Проверяем, что обе читаются без ошибок и несут осмысленные значения.
func TestProfile_DateColumnsScanAsTime(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterUser(ctx, 42, "testuser", "Test User"))

	p, err := s.Profile(ctx, 42)
	require.NoError(t, err)

	trialEnd := time.Now().Add(TrialPeriod).Format("2006-01-02")
	assert.Equal(t, trialEnd, p.SubscribedUntil.Format("2006-01-02"))
	assert.WithinDuration(t, time.Now(), p.CreatedAt, time.Minute)
}

func TestAppendTurn_TruncatesLongContent(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	long := strings.Repeat("ц", 5000)
	require.NoError(t, s.AppendTurn(ctx, 7, models.RoleUser, long))

	turns, err := s.RecentTurns(ctx, 7, 1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, 4000, len([]rune(turns[0].Content)))
}

func TestRecentTurns_ChronologicalOrder(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, 7, models.RoleUser, "hi"))
	require.NoError(t, s.AppendTurn(ctx, 7, models.RoleAssistant, "hello"))

	turns, err := s.RecentTurns(ctx, 7, 8)
	require.NoError(t, err)

	assert.Equal(t, []models.Turn{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}, turns)
}

func TestRecentTurns_LimitKeepsNewest(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	contents := []string{"one", "two", "three", "four"}
	for _, c := range contents {
		require.NoError(t, s.AppendTurn(ctx, 3, models.RoleUser, c))
	}

	turns, err := s.RecentTurns(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "three", turns[0].Content)
	assert.Equal(t, "four", turns[1].Content)
}

func TestRecentTurns_IsolatedPerUser(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, 1, models.RoleUser, "mine"))
	require.NoError(t, s.AppendTurn(ctx, 2, models.RoleUser, "other"))

	turns, err := s.RecentTurns(ctx, 1, 8)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "mine", turns[0].Content)
}

func TestClearHistory(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, 5, models.RoleUser, "to be removed"))
	require.NoError(t, s.AppendTurn(ctx, 6, models.RoleUser, "to be kept"))

	require.NoError(t, s.ClearHistory(ctx, 5))

	turns, err := s.RecentTurns(ctx, 5, 8)
	require.NoError(t, err)
	assert.Empty(t, turns)

	turns, err = s.RecentTurns(ctx, 6, 8)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestProfile(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.Profile(ctx, 404)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("counts messages", func(t *testing.T) {
		require.NoError(t, s.RegisterUser(ctx, 8, "anna_fan", "Anna Fan"))
		require.NoError(t, s.AppendTurn(ctx, 8, models.RoleUser, "hi"))
		require.NoError(t, s.AppendTurn(ctx, 8, models.RoleAssistant, "hello"))

		p, err := s.Profile(ctx, 8)
		require.NoError(t, err)

		assert.Equal(t, int64(8), p.ID)
		assert.Equal(t, "anna_fan", p.Username)
		assert.Equal(t, "Anna Fan", p.FullName)
		assert.True(t, p.IsSubscribed)
		assert.Equal(t, 2, p.MessageCount)
		assert.False(t, p.CreatedAt.IsZero())
	})
}
