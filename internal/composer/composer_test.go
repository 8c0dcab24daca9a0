package composer

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPlain возвращает Composer без декорирования эмодзи,
// чтобы проверять только разбиение.
func newPlain() *Composer {
	opts := DefaultOptions()
	opts.Palette = []string{}
	return New(opts)
}

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, newPlain().Split(""))
	assert.Empty(t, newPlain().Split("   \n\t  "))
}

func TestSplit_NoPunctuationSingleFragment(t *testing.T) {
	got := newPlain().Split("  просто   текст\nбез знаков   ")

	assert.Equal(t, []string{"просто текст без знаков"}, got)
}

func TestSplit_LongSentencesKeptSeparate(t *testing.T) {
	s1 := "Это первое достаточно длинное предложение."
	s2 := "А это второе, тоже заметно длиннее порога!"
	s3 := "Третье предложение завершает наш пример…"

	got := newPlain().Split(s1 + " " + s2 + " " + s3)

	assert.Equal(t, []string{s1, s2, s3}, got)
}

func TestSplit_ShortLeadingSentenceMergedForward(t *testing.T) {
	got := newPlain().Split("Hi. This is a longer sentence here. Ok.")

	assert.Equal(t, []string{
		"Hi. This is a longer sentence here.",
		"Ok.",
	}, got)
}

func TestSplit_ShortFragmentNeverStandsAloneBeforeAnother(t *testing.T) {
	inputs := []string{
		"Да. Нет. Может быть. Посмотрим вечером дома.",
		"Ок! Хорошо? Уже бегу… Вот это настоящая длинная история о многом.",
	}

	for _, input := range inputs {
		got := newPlain().Split(input)
		require.NotEmpty(t, got)
		// Короткий фрагмент допустим только в самом конце,
		// когда склеивать уже не с чем.
		for i, fragment := range got[:len(got)-1] {
			assert.GreaterOrEqual(t, len([]rune(fragment)), 20,
				"fragment %d %q is too short", i, fragment)
		}
	}
}

func TestSplit_QuestionAndEllipsisBoundaries(t *testing.T) {
	got := newPlain().Split("Как твои дела сегодня вечером? Я очень ждала твоего сообщения…")

	assert.Equal(t, []string{
		"Как твои дела сегодня вечером?",
		"Я очень ждала твоего сообщения…",
	}, got)
}

func TestSplit_EmojiOnlyOnEveryFourthFragment(t *testing.T) {
	opts := DefaultOptions()
	opts.EmojiChance = 1.0
	opts.Rand = rand.New(rand.NewSource(1))
	c := New(opts)

	long := "Это очень длинное предложение специально для теста."
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		sb.WriteString(long + " ")
	}

	got := c.Split(strings.TrimSpace(sb.String()))
	require.Len(t, got, 6)

	for i, fragment := range got {
		decorated := false
		for _, e := range defaultPalette {
			if strings.HasSuffix(fragment, " "+e) {
				decorated = true
			}
		}
		if i%4 == 0 {
			assert.True(t, decorated, "fragment %d should carry an emoji", i)
		} else {
			assert.False(t, decorated, "fragment %d should stay plain", i)
		}
	}
}

func TestSplit_ZeroChanceNeverDecorates(t *testing.T) {
	opts := DefaultOptions()
	opts.EmojiChance = 0
	c := New(opts)

	got := c.Split("Первое длинное предложение для примера. Второе длинное предложение для примера.")
	require.Len(t, got, 2)
	for _, fragment := range got {
		for _, e := range defaultPalette {
			assert.NotContains(t, fragment, e)
		}
	}
}
