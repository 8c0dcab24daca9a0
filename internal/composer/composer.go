// Package composer разбивает ответ модели на последовательность коротких
// сообщений, имитирующих живую переписку: нормализация пробелов, разбиение
// по предложениям, склейка слишком коротких фрагментов и редкие эмодзи.
package composer

import (
	"math/rand"
	"strings"
)

var defaultPalette = []string{"😊", "💫", "✨", "🤔", "💭", "❤️", "😂", "🎉", "👀", "🤗"}

// Options задают параметры разбиения. Пороговые значения вынесены в данные,
// чтобы тесты могли управлять ими и генератором случайных чисел.
type Options struct {
	MinFragmentLen int        // Фрагмент короче этого числа рун склеивается со следующим предложением
	EmojiInterval  int        // Эмодзи может получить каждый фрагмент с индексом, кратным этому числу
	EmojiChance    float64    // Вероятность добавить эмодзи к подходящему фрагменту
	Palette        []string   // Набор эмодзи; пустой срез отключает декорирование
	Rand           *rand.Rand // Детерминированный генератор для тестов; nil — общий генератор math/rand
}

// DefaultOptions возвращает параметры, с которыми бот работает в продакшене.
func DefaultOptions() Options {
	return Options{
		MinFragmentLen: 20,
		EmojiInterval:  4,
		EmojiChance:    0.2,
		Palette:        defaultPalette,
	}
}

// Composer выполняет разбиение по заданным параметрам.
type Composer struct {
	opts Options
	rnd  *rand.Rand
}

// New создает Composer. Options обычно берутся из DefaultOptions.
func New(opts Options) *Composer {
	return &Composer{opts: opts, rnd: opts.Rand}
}

// Split вызывается из горутин обработчиков, поэтому без явно заданного
// генератора используется потокобезопасный общий генератор math/rand.
func (c *Composer) float64() float64 {
	if c.rnd != nil {
		return c.rnd.Float64()
	}
	return rand.Float64()
}

func (c *Composer) intn(n int) int {
	if c.rnd != nil {
		return c.rnd.Intn(n)
	}
	return rand.Intn(n)
}

// Split превращает текст ответа в упорядоченный список фрагментов,
// каждый из которых отправляется отдельным сообщением.
// Пустой вход дает пустой результат.
func (c *Composer) Split(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	merged := mergeShort(splitSentences(text), c.opts.MinFragmentLen)

	result := make([]string, 0, len(merged))
	for i, fragment := range merged {
		if c.opts.EmojiInterval > 0 && i%c.opts.EmojiInterval == 0 &&
			len(c.opts.Palette) > 0 && c.float64() < c.opts.EmojiChance {
			fragment += " " + c.opts.Palette[c.intn(len(c.opts.Palette))]
		}
		result = append(result, fragment)
	}
	return result
}

// splitSentences делит текст на предложения: граница — пробел сразу после
// '.', '!', '?' или '…'; сам знак остается в предыдущем предложении.
func splitSentences(text string) []string {
	var sentences []string
	var cur []rune
	for _, r := range text {
		if r == ' ' && len(cur) > 0 && isTerminator(cur[len(cur)-1]) {
			sentences = append(sentences, string(cur))
			cur = nil
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		sentences = append(sentences, string(cur))
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

// mergeShort склеивает накопленный фрагмент короче minLen рун со следующим
// предложением, чтобы не отправлять обрывки вроде "Да." отдельным сообщением.
func mergeShort(sentences []string, minLen int) []string {
	var merged []string
	var current string

	for _, sentence := range sentences {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		if current != "" && len([]rune(current)) < minLen {
			current += " " + sentence
		} else {
			if current != "" {
				merged = append(merged, current)
			}
			current = sentence
		}
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}
