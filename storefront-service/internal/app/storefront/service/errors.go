package service

import (
	"errors"
	"fmt"
)

// ErrorKind - класс ошибки бизнес-логики, по которому транспорт выбирает HTTP статус
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindValidationFailed ErrorKind = "validation_failed"
	KindInconsistent     ErrorKind = "inconsistent"
	KindInternal         ErrorKind = "internal"
)

// Error - ошибка сервисного слоя. Ошибки хранилищ попадают наружу только внутри KindInternal.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает по Kind, чтобы errors.Is(err, ErrNotFound) работал для любого сообщения
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrValidationFailed = &Error{Kind: KindValidationFailed}
	ErrInconsistent     = &Error{Kind: KindInconsistent}
)

func notFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func validationFailed(format string, args ...interface{}) error {
	return &Error{Kind: KindValidationFailed, Message: fmt.Sprintf(format, args...)}
}

func inconsistent(format string, args ...interface{}) error {
	return &Error{Kind: KindInconsistent, Message: fmt.Sprintf(format, args...)}
}

func internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf возвращает класс ошибки; всё, что не *Error, считается внутренней ошибкой
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
