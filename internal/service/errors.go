package service

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a domain failure for callers
type ErrorCode string

// Error codes
const (
	CodeEmptyCart          ErrorCode = "EMPTY_CART"
	CodeInsufficientStock  ErrorCode = "INSUFFICIENT_STOCK"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeAccessDenied       ErrorCode = "ACCESS_DENIED"
	CodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeCheckoutInProgress ErrorCode = "CHECKOUT_IN_PROGRESS"
)

// Error is a domain failure with enough detail for the caller to act on.
// errors.Is matches any *Error with the same Code.
type Error struct {
	Code    ErrorCode
	Message string

	Field       string
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrEmptyCart          = &Error{Code: CodeEmptyCart, Message: "cart is empty"}
	ErrInsufficientStock  = &Error{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAccessDenied       = &Error{Code: CodeAccessDenied, Message: "access denied"}
	ErrInvalidTransition  = &Error{Code: CodeInvalidTransition, Message: "invalid transition"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrCheckoutInProgress = &Error{Code: CodeCheckoutInProgress, Message: "checkout already in progress"}
)

// AsError extracts a domain error from err
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func accessDenied(format string, args ...interface{}) *Error {
	return &Error{Code: CodeAccessDenied, Message: fmt.Sprintf(format, args...)}
}

func invalidTransition(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func validationError(field, format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func insufficientStock(productID, name string, requested, available int) *Error {
	label := name
	if label == "" {
		label = productID
	}
	return &Error{
		Code:        CodeInsufficientStock,
		Message:     fmt.Sprintf("insufficient stock for %s: requested %d, available %d", label, requested, available),
		ProductID:   productID,
		ProductName: name,
		Requested:   requested,
		Available:   available,
	}
}
