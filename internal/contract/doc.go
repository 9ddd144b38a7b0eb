// Package contract описывает и проверяет форму входных данных action.
//
// # Обзор
//
// Contract — это схема payload или account. Pipeline вызывает
// Validate до handler'а: если данные не проходят проверку, handler
// не вызывается, а в Hub уходит error с деталями.
//
//	type Contract interface {
//	    Validate(data any) (any, error)
//	}
//
// Validate возвращает нормализованное значение, которое получит handler.
//
// # Реализации
//
//   - Object — tagged-variant схема (String, Number, Integer, Bool, Map,
//     ObjectOf, ListOf, Any) с рекурсивным валидатором. Возвращает только
//     объявленные поля.
//   - JSONSchema — JSON Schema (Draft 2020-12), компилируется один раз
//     при регистрации.
//   - Struct[T] — статически типизированная структура с тегами validate.
//     Возвращает *T.
//
// # Ошибки
//
// Все реализации возвращают *ValidationError со списком Issue.
// Каждая Issue содержит путь (profile.notifications.email) и причину:
// отсутствует обязательное поле, неверный тип, нарушено ограничение.
package contract
