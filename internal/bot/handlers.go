package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dirtydonny/annabot/internal/lib/sl"
	"github.com/dirtydonny/annabot/internal/storage"
)

// handleStart регистрирует пользователя и отправляет приветственную серию.
// Если регистрация или отправка сорвались, уходит укороченное приветствие
// без клавиатуры.
func (b *Bot) handleStart(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	const op = "bot.handleStart"

	log = log.With(sl.Op(op))
	user := msg.From

	if err := b.entitlement.Register(ctx, user.ID, user.UserName, fullName(user)); err != nil {
		log.Error("регистрация не удалась", sl.Err(err))
		b.sendFallback(ctx, log, msg.Chat.ID, startFallbackSequence)
		return
	}

	log.Info("пользователь зарегистрирован")

	kb := b.mainKeyboard(ctx, log, user.ID)
	if err := b.sendSequence(ctx, msg.Chat.ID, welcomeSequence(user.FirstName), &kb); err != nil {
		log.Error("не удалось отправить приветствие", sl.Err(err))
		b.sendFallback(ctx, log, msg.Chat.ID, startFallbackSequence)
	}
}

// handleProfile отправляет карточку профиля серией сообщений.
// Незарегистрированный пользователь получает подсказку про /start.
func (b *Bot) handleProfile(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	const op = "bot.handleProfile"

	log = log.With(sl.Op(op))
	userID := msg.From.ID

	profile, err := b.entitlement.Profile(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, registerPromptText)); err != nil {
			log.Error("не удалось отправить подсказку о регистрации", sl.Err(err))
		}
		return
	}
	if err != nil {
		log.Error("не удалось загрузить профиль", sl.Err(err))
		b.sendFallback(ctx, log, msg.Chat.ID, profileErrorSequence)
		return
	}

	entitled, err := b.entitlement.IsEntitled(ctx, userID)
	if err != nil {
		log.Error("не удалось проверить доступ", sl.Err(err))
		b.sendFallback(ctx, log, msg.Chat.ID, profileErrorSequence)
		return
	}

	kb := b.mainKeyboard(ctx, log, userID)
	if err := b.sendSequence(ctx, msg.Chat.ID, profileSequence(profile, entitled), &kb); err != nil {
		log.Error("не удалось отправить профиль", sl.Err(err))
		b.sendFallback(ctx, log, msg.Chat.ID, profileErrorSequence)
	}
}

// handleButton выполняет действие нажатой кнопки главной клавиатуры.
func (b *Bot) handleButton(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message, kind buttonKind) {
	const op = "bot.handleButton"

	log = log.With(sl.Op(op))

	switch kind {
	case buttonProfile:
		b.handleProfile(ctx, log, msg)
	case buttonBuy:
		if err := b.sendSequence(ctx, msg.Chat.ID, buySequence, nil); err != nil {
			log.Error("не удалось отправить предложение подписки", sl.Err(err))
			b.sendFallback(ctx, log, msg.Chat.ID, buttonErrorSequence)
		}
	case buttonWrite:
		kb := b.mainKeyboard(ctx, log, msg.From.ID)
		if err := b.sendSequence(ctx, msg.Chat.ID, inviteSequence, &kb); err != nil {
			log.Error("не удалось отправить приглашение", sl.Err(err))
			b.sendFallback(ctx, log, msg.Chat.ID, buttonErrorSequence)
		}
	}
}

// handleMessage отвечает на свободное сообщение: проверяет доступ, получает
// ответ модели и отправляет его фрагментами с паузами и индикатором набора.
// Клавиатура прикладывается только к последнему фрагменту.
func (b *Bot) handleMessage(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	const op = "bot.handleMessage"

	log = log.With(sl.Op(op))
	userID := msg.From.ID

	entitled, err := b.entitlement.IsEntitled(ctx, userID)
	if err != nil {
		log.Error("не удалось проверить доступ", sl.Err(err))
		kb := b.mainKeyboard(ctx, log, userID)
		b.sendFallback(ctx, log, msg.Chat.ID, messageErrorSequence, &kb)
		return
	}

	if !entitled {
		out := tgbotapi.NewMessage(msg.Chat.ID, expiredText)
		out.ReplyMarkup = b.mainKeyboard(ctx, log, userID)
		if _, err := b.api.Send(out); err != nil {
			log.Error("не удалось отправить уведомление об окончании доступа", sl.Err(err))
		}
		return
	}

	b.sendTyping(log, msg.Chat.ID)
	b.sleep(ctx, thinkingPause)

	reply := b.chat.Respond(ctx, userID, msg.Text)
	parts := b.splitter.Split(reply)

	log.Info("ответ разбит на фрагменты", slog.Int("fragments", len(parts)))

	kb := b.mainKeyboard(ctx, log, userID)
	for i, part := range parts {
		if i > 0 {
			b.sleep(ctx, b.randPause(replyPauseMin, replyPauseMax))
			b.sendTyping(log, msg.Chat.ID)
			b.sleep(ctx, typingPause)
		}

		out := tgbotapi.NewMessage(msg.Chat.ID, part)
		if i == len(parts)-1 {
			out.ReplyMarkup = kb
		}

		if _, err := b.api.Send(out); err != nil {
			log.Error("не удалось отправить фрагмент ответа", sl.Err(err))
			b.sendFallback(ctx, log, msg.Chat.ID, messageErrorSequence, &kb)
			return
		}
	}
}

// sendFallback отправляет деградационную серию. Ошибка отправки здесь
// только логируется: дальше отступать некуда.
func (b *Bot) sendFallback(ctx context.Context, log *slog.Logger, chatID int64, seq sequence, kb ...*tgbotapi.ReplyKeyboardMarkup) {
	var markup *tgbotapi.ReplyKeyboardMarkup
	if len(kb) > 0 {
		markup = kb[0]
	}
	if err := b.sendSequence(ctx, chatID, seq, markup); err != nil {
		log.Error("не удалось отправить запасную серию", sl.Err(err))
	}
}

// fullName собирает отображаемое имя из имени и фамилии Telegram.
func fullName(user *tgbotapi.User) string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
