// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — упростить формирование структурированных полей лога:
// ошибок, имени операции и идентификатора пользователя Telegram.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Удобно использовать в логировании для единообразного вывода ошибок.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op возвращает slog.Attr с ключом "op" и именем операции в формате "pkg.Func".
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// UserID возвращает slog.Attr с ключом "user_id" для идентификатора
// пользователя Telegram.
func UserID(id int64) slog.Attr {
	return slog.Int64("user_id", id)
}
