// Package models содержит доменные структуры бота: пользователя Telegram,
// реплику диалога и агрегированный профиль. Структуры используются
// в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя бота.
// Запись создаётся один раз при первом контакте (/start) и после этого
// не изменяется: срок действия пробного периода только читается.
type User struct {
	ID              int64     // Идентификатор пользователя Telegram
	Username        string    // Username в Telegram (может быть пустым)
	FullName        string    // Отображаемое имя
	IsSubscribed    bool      // Флаг активной подписки или пробного периода
	SubscribedUntil time.Time // Дата окончания подписки (сравнение только по дате)
	CreatedAt       time.Time // Время регистрации
}

// Profile объединяет данные пользователя со счётчиком его сообщений.
// Используется обработчиком /profile.
type Profile struct {
	User
	MessageCount int // Количество сообщений пользователя в истории
}
