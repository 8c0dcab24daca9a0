// Package chat реализует основной сценарий ответа: сохранить реплику
// пользователя, собрать контекст из последних реплик, спросить модель
// и сохранить её ответ. Любая неудача превращается в запасную фразу,
// наружу ошибки не выходят.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dirtydonny/annabot/internal/lib/sl"
	"github.com/dirtydonny/annabot/internal/llm"
	"github.com/dirtydonny/annabot/internal/models"
)

// historyLimit — сколько последних реплик уходит модели как контекст.
const historyLimit = 8

// Запасные ответы: отдельный для пустого ответа модели и отдельный
// для любых сбоев вызова.
const (
	fallbackEmpty = "Интересно! Расскажи мне больше?"
	fallbackError = "Извини, я немного задумалась... О чем расскажешь?"
)

// Repository описывает операции с историей диалога.
type Repository interface {
	AppendTurn(ctx context.Context, id int64, role, content string) error
	RecentTurns(ctx context.Context, id int64, limit int) ([]models.Turn, error)
}

// Completer описывает клиент инференс-API.
type Completer interface {
	Chat(ctx context.Context, messages []models.Turn) (string, error)
}

// Service реализует сценарий ответа на свободный текст.
type Service struct {
	repo         Repository
	llm          Completer
	systemPrompt string
	log          *slog.Logger
}

// New создает Service. systemPrompt подставляется первой репликой
// в каждый запрос к модели.
func New(repo Repository, completer Completer, systemPrompt string, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		llm:          completer,
		systemPrompt: systemPrompt,
		log:          log,
	}
}

// Respond возвращает ответ на сообщение пользователя. Реплика пользователя
// сохраняется до вызова модели, поэтому попадает в историю даже при сбое.
// Ошибок не возвращает: на любой сбой отвечает запасной фразой.
func (s *Service) Respond(ctx context.Context, userID int64, text string) string {
	const op = "services.chat.Respond"
	log := s.log.With(sl.Op(op), sl.UserID(userID))

	if err := s.repo.AppendTurn(ctx, userID, models.RoleUser, text); err != nil {
		log.Error("failed to save user turn", sl.Err(err))
	}

	history, err := s.repo.RecentTurns(ctx, userID, historyLimit)
	if err != nil {
		log.Error("failed to load chat history", sl.Err(err))
		return fallbackError
	}

	messages := make([]models.Turn, 0, len(history)+1)
	messages = append(messages, models.Turn{Role: models.RoleSystem, Content: s.systemPrompt})
	messages = append(messages, history...)

	reply, err := s.llm.Chat(ctx, messages)
	if err != nil {
		if errors.Is(err, llm.ErrNoChoices) {
			log.Warn("llm returned no choices")
			return fallbackEmpty
		}
		log.Error("llm call failed", sl.Err(err))
		return fallbackError
	}
	if reply == "" {
		log.Warn("llm returned blank reply")
		return fallbackEmpty
	}

	if err = s.repo.AppendTurn(ctx, userID, models.RoleAssistant, reply); err != nil {
		log.Error("failed to save assistant turn", sl.Err(err))
	}
	return reply
}
