package bot

import (
	"fmt"
	"time"

	"github.com/dirtydonny/annabot/internal/models"
)

// Паузы между фрагментами. Значения подобраны под темп живой переписки
// и различаются по обработчикам.
const (
	welcomePause  = 800 * time.Millisecond
	profilePause  = 700 * time.Millisecond
	buyPause      = 700 * time.Millisecond
	invitePause   = 600 * time.Millisecond
	fallbackPause = 600 * time.Millisecond
	apologyPause  = 700 * time.Millisecond

	// Паузы свободного диалога: «обдумывание» перед ответом, индикатор
	// набора и случайный разброс между фрагментами.
	thinkingPause = time.Second
	typingPause   = 400 * time.Millisecond
	replyPauseMin = 800 * time.Millisecond
	replyPauseMax = 1500 * time.Millisecond
)

// fragment — одно исходящее сообщение внутри последовательности.
type fragment struct {
	text     string
	html     bool // Отправить с parse_mode HTML
	keyboard bool // Приложить клавиатуру к этому сообщению
}

// sequence — упорядоченный набор фрагментов с общей паузой между ними.
type sequence struct {
	fragments []fragment
	pause     time.Duration
}

const (
	expiredText        = "К сожалению, твой пробный период закончился 😔"
	registerPromptText = "Сначала напиши /start для регистрации!"
	renewalContact     = "@dirtydonny"
)

// welcomeSequence — приветствие после /start, клавиатура на последнем
// фрагменте.
func welcomeSequence(firstName string) sequence {
	return sequence{
		pause: welcomePause,
		fragments: []fragment{
			{text: fmt.Sprintf("Привет, %s! 👋", firstName)},
			{text: "Меня зовут Анна! 💫"},
			{text: "Я здесь, чтобы поддержать тебя и поболтать на разные темы ✨"},
			{text: "У тебя есть пробный период на 24 часа! 🎉"},
			{text: "Просто напиши мне сообщение", keyboard: true},
		},
	}
}

// startFallbackSequence отправляется, если регистрация не удалась:
// пользователь все равно получает приветствие.
var startFallbackSequence = sequence{
	pause: fallbackPause,
	fragments: []fragment{
		{text: "Привет! 👋"},
		{text: "Рада тебя видеть! 😊"},
		{text: "Напиши мне что-нибудь! 💭"},
	},
}

// buySequence описывает предложение подписки. HTML только в заголовке.
var buySequence = sequence{
	pause: buyPause,
	fragments: []fragment{
		{text: "💎 <b>Премиум подписка</b>", html: true},
		{text: "• 🗣️ Неограниченное общение"},
		{text: "• 💾 Сохранение истории"},
		{text: "• ⚡ Приоритетная обработка"},
		{text: "• 🎁 Эксклюзивные функции"},
		{text: "Стоимость: 299 руб./месяц 💫"},
		{text: "Напиши " + renewalContact + " для оформления! 😊"},
	},
}

// inviteSequence — ответ на кнопку «Написать сообщение».
var inviteSequence = sequence{
	pause: invitePause,
	fragments: []fragment{
		{text: "Отлично! 💫"},
		{text: "Я слушаю тебя... 👂"},
		{text: "Расскажи мне что-нибудь! 💖"},
		{text: "О чем хочешь поговорить? 😊", keyboard: true},
	},
}

// messageErrorSequence — деградация свободного диалога, клавиатура на
// последнем фрагменте.
var messageErrorSequence = sequence{
	pause: welcomePause,
	fragments: []fragment{
		{text: "Упс... что-то пошло не так 😅"},
		{text: "Давай попробуем еще раз? 💫"},
		{text: "Расскажи мне что-нибудь! 😊", keyboard: true},
	},
}

// buttonErrorSequence — деградация обработчика кнопок.
var buttonErrorSequence = sequence{
	pause: fallbackPause,
	fragments: []fragment{
		{text: "Ой... 😅"},
		{text: "Что-то пошло не так с кнопками..."},
		{text: "Попробуй еще раз! 💫"},
	},
}

// profileErrorSequence — деградация обработчика /profile.
var profileErrorSequence = sequence{
	pause: fallbackPause,
	fragments: []fragment{
		{text: "Не могу загрузить профиль... 😔"},
		{text: "Попробуй позже! 💫"},
	},
}

// apologySequence отправляет глобальный обработчик ошибок.
var apologySequence = sequence{
	pause: apologyPause,
	fragments: []fragment{
		{text: "Упс... что-то пошло не так 😅"},
		{text: "Давай попробуем еще раз? 💫"},
	},
}

// profileSequence собирает карточку профиля. Заголовок и строка статуса
// уходят с HTML-разметкой; без активного доступа добавляется подсказка
// о продлении. Клавиатура на последнем фрагменте.
func profileSequence(p *models.Profile, entitled bool) sequence {
	name := p.FullName
	if name == "" {
		name = "Не указано"
	}

	status := "✅ Активна"
	if !entitled {
		status = "❌ Не активна"
	}

	fragments := []fragment{
		{text: "👤 <b>Твой профиль</b>", html: true},
		{text: "📛 Имя: " + name},
		{text: "📅 Регистрация: " + p.CreatedAt.Format("02.01.2006")},
		{text: fmt.Sprintf("📨 Сообщений: %d", p.MessageCount)},
		{text: "💎 <b>Статус:</b> " + status, html: true},
	}
	if !entitled {
		fragments = append(fragments, fragment{text: "💫 Напиши " + renewalContact + " чтобы продолжить общение!"})
	}
	fragments[len(fragments)-1].keyboard = true

	return sequence{fragments: fragments, pause: profilePause}
}
