package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 錯誤分類, handler 依此決定 http status
type Code string

const (
	NotFoundCode                Code = "NOT_FOUND"
	InvalidInputCode            Code = "INVALID_INPUT"
	InsufficientStockCode       Code = "INSUFFICIENT_STOCK"
	InvalidStateCode            Code = "INVALID_STATE"
	InvalidOperationCode        Code = "INVALID_OPERATION"
	NothingToShipCode           Code = "NOTHING_TO_SHIP"
	EmptyOrInvalidSelectionCode Code = "EMPTY_OR_INVALID_SELECTION"
	InvalidReferenceCode        Code = "INVALID_REFERENCE"
	ConflictCode                Code = "CONFLICT"
	ExternalServiceCode         Code = "EXTERNAL_SERVICE_ERROR"
	InternalCode                Code = "INTERNAL"
)

var ErrStrMap = map[Code]string{
	NotFoundCode:                "resource not found",
	InvalidInputCode:            "invalid input",
	InsufficientStockCode:       "insufficient stock",
	InvalidStateCode:            "operation not allowed in current state",
	InvalidOperationCode:        "invalid operation",
	NothingToShipCode:           "nothing to ship",
	EmptyOrInvalidSelectionCode: "no selected product matches the cart",
	InvalidReferenceCode:        "invalid reference",
	ConflictCode:                "concurrent modification, please retry",
	ExternalServiceCode:         "external service error",
	InternalCode:                "internal server error",
}

var statusMap = map[Code]int{
	NotFoundCode:                http.StatusNotFound,
	InvalidInputCode:            http.StatusBadRequest,
	InsufficientStockCode:       http.StatusConflict,
	InvalidStateCode:            http.StatusConflict,
	InvalidOperationCode:        http.StatusBadRequest,
	NothingToShipCode:           http.StatusConflict,
	EmptyOrInvalidSelectionCode: http.StatusBadRequest,
	InvalidReferenceCode:        http.StatusBadRequest,
	ConflictCode:                http.StatusConflict,
	ExternalServiceCode:         http.StatusBadGateway,
	InternalCode:                http.StatusInternalServerError,
}

// Error 業務錯誤, Message 可直接回給使用者, Err 只進 log
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同 Code 視為同一種錯誤
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) *Error {
	if msg == "" {
		msg = ErrStrMap[code]
	}
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, msg string) *Error {
	if msg == "" {
		msg = ErrStrMap[code]
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf 非業務錯誤一律視為 InternalCode
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalCode
}

func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func HTTPStatus(code Code) int {
	if s, ok := statusMap[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
