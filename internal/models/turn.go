package models

// Роли реплик в истории диалога. Совпадают с ролями OpenAI-совместимого API,
// поэтому реплики идут в запрос к модели без преобразования.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn — одна реплика диалога: кто сказал и что именно.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
