// Package llm реализует клиент OpenAI-совместимого completion-API.
// Клиент отправляет историю диалога одним POST-запросом и возвращает
// текст первого ответа модели. Ретраев нет: неудачный вызов — это
// один запасной ответ пользователю, а не ошибка наружу.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dirtydonny/annabot/internal/config"
	"github.com/dirtydonny/annabot/internal/models"
)

// ErrNoChoices возвращается, когда API ответил успешно,
// но не прислал ни одного варианта ответа.
var ErrNoChoices = errors.New("llm: response contains no choices")

// Client инкапсулирует параметры обращения к инференс-API.
type Client struct {
	httpClient  *http.Client
	apiURL      string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// New создает клиент с таймаутом из конфига (по умолчанию 30 секунд).
func New(cfg config.LLM) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []models.Turn `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message models.Turn `json:"message"`
	} `json:"choices"`
}

// Chat отправляет реплики модели и возвращает текст первого ответа
// с обрезанными краевыми пробелами.
func (c *Client) Chat(ctx context.Context, messages []models.Turn) (string, error) {
	const op = "llm.Chat"

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var out completionResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrNoChoices)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
