// Package storage реализует хранилище данных на основе SQLite
// для управления пользователями и историей диалогов. Предоставляет методы
// регистрации с пробным периодом, проверки подписки, добавления и выборки
// реплик, очистки истории и построения профиля.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Регистрация драйвера sqlite для использования с database/sql.
	_ "modernc.org/sqlite"

	"github.com/dirtydonny/annabot/internal/models"
)

// ErrUserNotFound возвращается, когда запись пользователя отсутствует.
var ErrUserNotFound = errors.New("user not found")

const (
	dateLayout = "2006-01-02"

	// TrialPeriod — длительность пробного периода, который выдаётся
	// при первой регистрации.
	TrialPeriod = 24 * time.Hour

	// maxContentLen — максимальная длина сохраняемой реплики в рунах,
	// более длинный текст обрезается.
	maxContentLen = 4000
)

// Storage инкапсулирует соединение с базой данных SQLite
// и реализует методы работы с пользователями и историей диалогов.
type Storage struct {
	DB *sql.DB
}

// New открывает (при необходимости создаёт) файл базы данных
// и инициализирует необходимые таблицы.
func New(path string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Один writer: SQLite не рассчитан на конкурирующие соединения на запись.
	db.SetMaxOpenConns(1)
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
	    user_id INTEGER PRIMARY KEY,
	    username TEXT,
	    full_name TEXT,
	    is_subscribed BOOLEAN NOT NULL DEFAULT FALSE,
	    subscribed_until DATE,
	    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
	    id INTEGER PRIMARY KEY AUTOINCREMENT,
	    user_id INTEGER NOT NULL,
	    role TEXT NOT NULL,
	    content TEXT NOT NULL,
	    timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    FOREIGN KEY (user_id) REFERENCES users (user_id)
	);`); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// Close закрывает соединение с базой данных.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// RegisterUser сохраняет нового пользователя с пробным периодом на 24 часа.
// Повторная регистрация уже существующего идентификатора — no-op:
// конфликт вставки молча игнорируется, срок подписки не обновляется.
func (s *Storage) RegisterUser(ctx context.Context, id int64, username, fullName string) error {
	const op = "storage.RegisterUser"

	trialEnd := time.Now().Add(TrialPeriod)
	query := `INSERT OR IGNORE INTO users (user_id, username, full_name, is_subscribed, subscribed_until)
			  VALUES (?, ?, ?, ?, ?)`
	if _, err := s.DB.ExecContext(ctx, query,
		id, username, fullName, true, trialEnd.Format(dateLayout)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsEntitled сообщает, активна ли подписка или пробный период пользователя.
// Отсутствие записи, снятый флаг или истёкший срок дают false.
// Сравнение срока идёт только по дате, время суток игнорируется.
func (s *Storage) IsEntitled(ctx context.Context, id int64) (bool, error) {
	const op = "storage.IsEntitled"

	query := `SELECT is_subscribed, subscribed_until FROM users WHERE user_id = ?`
	row := s.DB.QueryRowContext(ctx, query, id)

	var isSubscribed bool
	var subscribedUntil sql.NullTime
	if err := row.Scan(&isSubscribed, &subscribedUntil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !isSubscribed || !subscribedUntil.Valid {
		return false, nil
	}

	// Драйвер отдаёт колонку DATE как time.Time. Сравниваем календарные
	// даты, а не моменты времени: срок действует до конца последнего дня.
	until := subscribedUntil.Time.Format(dateLayout)
	today := time.Now().Format(dateLayout)
	return until >= today, nil
}

// AppendTurn добавляет реплику в историю диалога. Текст длиннее 4000 рун
// обрезается. Вызывающая сторона трактует ошибку как best-effort.
func (s *Storage) AppendTurn(ctx context.Context, id int64, role, content string) error {
	const op = "storage.AppendTurn"

	if runes := []rune(content); len(runes) > maxContentLen {
		content = string(runes[:maxContentLen])
	}
	query := `INSERT INTO messages (user_id, role, content) VALUES (?, ?, ?)`
	if _, err := s.DB.ExecContext(ctx, query, id, role, content); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecentTurns возвращает не более limit последних реплик пользователя
// в хронологическом порядке (от старых к новым) — готовый контекст
// для запроса к модели.
func (s *Storage) RecentTurns(ctx context.Context, id int64, limit int) ([]models.Turn, error) {
	const op = "storage.RecentTurns"

	query := `SELECT role, content
			  FROM messages
			  WHERE user_id = ?
			  ORDER BY timestamp DESC, id DESC
			  LIMIT ?`
	rows, err := s.DB.QueryContext(ctx, query, id, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err = rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		turns = append(turns, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Запрос отдаёт реплики от новых к старым, разворачиваем обратно.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ClearHistory удаляет все реплики пользователя.
func (s *Storage) ClearHistory(ctx context.Context, id int64) error {
	const op = "storage.ClearHistory"

	query := `DELETE FROM messages WHERE user_id = ?`
	if _, err := s.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Profile возвращает данные пользователя вместе со счётчиком его сообщений.
// Если пользователь не зарегистрирован, возвращает ErrUserNotFound.
func (s *Storage) Profile(ctx context.Context, id int64) (*models.Profile, error) {
	const op = "storage.Profile"

	query := `SELECT u.user_id, u.username, u.full_name, u.is_subscribed,
			      u.subscribed_until, u.created_at,
			      (SELECT COUNT(*) FROM messages m WHERE m.user_id = u.user_id)
			  FROM users u
			  WHERE u.user_id = ?`
	row := s.DB.QueryRowContext(ctx, query, id)

	var p models.Profile
	var username, fullName sql.NullString
	var subscribedUntil sql.NullTime
	if err := row.Scan(&p.ID, &username, &fullName, &p.IsSubscribed,
		&subscribedUntil, &p.CreatedAt, &p.MessageCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.Username = username.String
	p.FullName = fullName.String
	p.SubscribedUntil = subscribedUntil.Time

	return &p, nil
}
