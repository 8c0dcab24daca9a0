// Package bot принимает обновления Telegram через long polling и раздает их
// обработчикам. Каждое обновление обрабатывается в отдельной горутине,
// паника внутри обработчика гасится и превращается в извинение пользователю.
package bot

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/dirtydonny/annabot/internal/lib/sl"
	"github.com/dirtydonny/annabot/internal/models"
)

// EntitlementService — операции регистрации и проверки доступа.
type EntitlementService interface {
	Register(ctx context.Context, id int64, username, fullName string) error
	IsEntitled(ctx context.Context, id int64) (bool, error)
	Profile(ctx context.Context, id int64) (*models.Profile, error)
}

// ChatService формирует текст ответа на свободное сообщение.
// Ошибки он не возвращает: деградация до запасных реплик происходит внутри.
type ChatService interface {
	Respond(ctx context.Context, userID int64, text string) string
}

// Splitter разбивает ответ на фрагменты для поочередной отправки.
type Splitter interface {
	Split(text string) []string
}

// sender — используемое ботом подмножество *tgbotapi.BotAPI.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot связывает Telegram API с сервисами доступа и диалога.
type Bot struct {
	api         sender
	poller      *tgbotapi.BotAPI
	entitlement EntitlementService
	chat        ChatService
	splitter    Splitter
	log         *slog.Logger
	pollTimeout int

	// Паузы вынесены в функции, чтобы тесты выполнялись мгновенно.
	sleep     func(ctx context.Context, d time.Duration)
	randPause func(min, max time.Duration) time.Duration
}

// New создает Bot поверх подключенного клиента Telegram.
func New(api *tgbotapi.BotAPI, entitlement EntitlementService, chat ChatService, splitter Splitter, log *slog.Logger, pollTimeout int) *Bot {
	return &Bot{
		api:         api,
		poller:      api,
		entitlement: entitlement,
		chat:        chat,
		splitter:    splitter,
		log:         log,
		pollTimeout: pollTimeout,
		sleep:       sleepCtx,
		randPause:   randomPause,
	}
}

// Run запускает long polling и блокируется до отмены контекста.
func (b *Bot) Run(ctx context.Context) error {
	const op = "bot.Run"

	log := b.log.With(sl.Op(op))
	log.Info("бот запущен", slog.String("username", b.poller.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.poller.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			log.Info("остановка long polling")
			b.poller.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate разбирает обновление и вызывает нужный обработчик.
// Паника обработчика не роняет остальные горутины: она логируется,
// пользователь получает извинение.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	log := b.log.With(
		slog.String("trace_id", uuid.NewString()),
		sl.UserID(msg.From.ID),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("паника при обработке обновления", slog.Any("panic", r))
			b.sendApology(ctx, log, msg.Chat.ID)
		}
	}()

	switch {
	case msg.IsCommand():
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, log, msg)
		case "profile":
			b.handleProfile(ctx, log, msg)
		}
	default:
		if kind, ok := buttonFromLabel(msg.Text); ok {
			b.handleButton(ctx, log, msg, kind)
			return
		}
		b.handleMessage(ctx, log, msg)
	}
}

// sendSequence отправляет фрагменты по очереди с фиксированной паузой между
// ними. Клавиатура прикладывается к фрагментам с установленным флагом.
// Возвращает ошибку первой неудавшейся отправки.
func (b *Bot) sendSequence(ctx context.Context, chatID int64, seq sequence, kb *tgbotapi.ReplyKeyboardMarkup) error {
	for i, f := range seq.fragments {
		if i > 0 {
			b.sleep(ctx, seq.pause)
		}

		out := tgbotapi.NewMessage(chatID, f.text)
		if f.html {
			out.ParseMode = tgbotapi.ModeHTML
		}
		if f.keyboard && kb != nil {
			out.ReplyMarkup = *kb
		}

		if _, err := b.api.Send(out); err != nil {
			return err
		}
	}
	return nil
}

// sendTyping показывает индикатор «печатает». Ошибка только логируется:
// индикатор не важнее самого сообщения.
func (b *Bot) sendTyping(log *slog.Logger, chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(action); err != nil {
		log.Warn("не удалось отправить индикатор набора", sl.Err(err))
	}
}

// sendApology — последняя линия обороны: два коротких извинения без
// клавиатуры. Ошибки отправки здесь уже некому обрабатывать.
func (b *Bot) sendApology(ctx context.Context, log *slog.Logger, chatID int64) {
	if err := b.sendSequence(ctx, chatID, apologySequence, nil); err != nil {
		log.Error("не удалось отправить сообщение об ошибке", sl.Err(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func randomPause(min, max time.Duration) time.Duration {
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
