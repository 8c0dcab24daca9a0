// Package health отвечает на liveness-проверки оркестратора.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{
		log: log,
	}
}

// ServeHTTP возвращает 200 OK, пока процесс жив. Состояние зависимостей
// не проверяется.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.PlainText(w, r, "OK")
}
