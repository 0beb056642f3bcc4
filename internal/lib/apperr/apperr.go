// Package apperr описывает классы ошибок сервиса назначений:
// нарушение области управления, отсутствие сущности, ошибку валидации
// и сбой хранилища. HTTP-слой и фоновые задачи различают ошибки только по классу.
package apperr

import (
	"errors"
	"fmt"
)

// Kind класс ошибки.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error ошибка с классом и идентификатором сущности, вызвавшей её.
type Error struct {
	Kind Kind
	ID   string // Идентификатор, на котором сработала проверка
	Msg  string
	Err  error
}

// Сентинелы для сравнения через errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrStorage    = &Error{Kind: KindStorage}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибки по классу.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation ошибка некорректных входных данных.
func Validation(msg, id string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, ID: id}
}

// NotFound ошибка отсутствующей сущности.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Msg: entity + " not found", ID: id}
}

// Forbidden ошибка выхода за область управления действующего субъекта.
func Forbidden(msg, id string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg, ID: id}
}

// Storage оборачивает сбой хранилища. Уже классифицированные ошибки не переоборачиваются.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindStorage, Msg: "storage failure", Err: err}
}

// KindOf возвращает класс ошибки; для неклассифицированных ошибок KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// PublicMessage возвращает текст ошибки, который можно отдать клиенту.
// Подробности сбоев хранилища наружу не передаются.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == KindStorage {
		return "internal error"
	}
	if appErr.ID != "" {
		return fmt.Sprintf("%s: %s", appErr.Msg, appErr.ID)
	}
	return appErr.Msg
}
