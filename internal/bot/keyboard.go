package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dirtydonny/annabot/internal/lib/sl"
)

// Подписи кнопок главной клавиатуры. По этим же строкам входящий текст
// распознается как нажатие кнопки.
const (
	labelWrite   = "💬 Написать сообщение"
	labelProfile = "👤 Мой профиль"
	labelBuy     = "💎 Купить подписку"
)

// buttonKind перечисляет кнопки главной клавиатуры. Сопоставление с текстом
// происходит только на границе диспетчеризации, обработчики работают
// с перечислением.
type buttonKind int

const (
	buttonWrite buttonKind = iota
	buttonProfile
	buttonBuy
)

// buttonFromLabel распознает нажатие кнопки по точному совпадению подписи.
func buttonFromLabel(text string) (buttonKind, bool) {
	switch text {
	case labelWrite:
		return buttonWrite, true
	case labelProfile:
		return buttonProfile, true
	case labelBuy:
		return buttonBuy, true
	}
	return 0, false
}

// mainKeyboard строит главную клавиатуру: кнопки диалога и профиля всегда,
// кнопка покупки — только без активного доступа. Если проверку доступа
// выполнить не удалось, возвращается минимальная клавиатура с одной кнопкой.
func (b *Bot) mainKeyboard(ctx context.Context, log *slog.Logger, userID int64) tgbotapi.ReplyKeyboardMarkup {
	entitled, err := b.entitlement.IsEntitled(ctx, userID)
	if err != nil {
		log.Error("не удалось построить клавиатуру", sl.Err(err))
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelWrite)),
		)
	}

	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelWrite)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelProfile)),
	}
	if !entitled {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelBuy)))
	}

	return tgbotapi.NewReplyKeyboard(rows...)
}
