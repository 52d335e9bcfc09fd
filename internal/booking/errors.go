package booking

import (
	"errors"
	"fmt"

	"github.com/Leganyst/booking-core/internal/validation"
)

// Kind — класс отказа операции регистра.
type Kind string

const (
	KindValidationFailed   Kind = "validation_failed"
	KindSlotUnavailable    Kind = "slot_unavailable"
	KindReservedByOther    Kind = "reserved_by_other"
	KindBookingConflict    Kind = "booking_conflict"
	KindNotFound           Kind = "not_found"
	KindUnauthorized       Kind = "unauthorized"
	KindAlreadyCancelled   Kind = "already_cancelled"
	KindInvalidArgument    Kind = "invalid_argument"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindInternal           Kind = "internal"
)

// Error — типизированный результат неуспешной операции.
// Для KindValidationFailed в Fields перечислены все нарушения.
type Error struct {
	Kind    Kind
	Message string
	Fields  []validation.FieldError
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает только Kind, чтобы errors.Is(err, ErrNotFound) работал
// для любого сообщения.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidationFailed   = &Error{Kind: KindValidationFailed}
	ErrSlotUnavailable    = &Error{Kind: KindSlotUnavailable}
	ErrReservedByOther    = &Error{Kind: KindReservedByOther}
	ErrBookingConflict    = &Error{Kind: KindBookingConflict}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrAlreadyCancelled   = &Error{Kind: KindAlreadyCancelled}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrInternal           = &Error{Kind: KindInternal}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf возвращает Kind ошибки регистра или пустую строку для прочих ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// FieldErrors — нарушения валидации из ошибки, если они есть.
func FieldErrors(err error) []validation.FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
