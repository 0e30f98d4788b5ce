package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyMember   = errors.New("already a member of the group")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUploadFailed    = errors.New("upload failed")
	ErrUnavailable     = errors.New("service unavailable")
)

// Стабильные коды ошибок для клиентов
const (
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeConflict        = "conflict"
	CodeAlreadyMember   = "already_member"
	CodeInvalidArgument = "invalid_argument"
	CodeUploadFailed    = "upload_failed"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal"
)

// Code возвращает стабильный код для ошибки любого уровня вложенности
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyMember):
		return CodeAlreadyMember
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrUploadFailed):
		return CodeUploadFailed
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	}
	return CodeInternal
}

// storeErr переводит ошибку хранилища в таксономию ядра
func storeErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, what, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// FromStore - storeErr для слоев, которые ходят в хранилище напрямую
func FromStore(err error, what string) error {
	return storeErr(err, "%s", what)
}
