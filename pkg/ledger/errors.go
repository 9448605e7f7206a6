package ledger

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the ledger service.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrSelfTransfer           = errors.New("cannot transfer to own account")
	ErrUnknownAccount         = errors.New("unknown account")
	ErrUnknownProduct         = errors.New("unknown product")
	ErrUnknownTransaction     = errors.New("unknown transaction")
	ErrUnknownOrder           = errors.New("unknown order")
	ErrDuplicateUsername      = errors.New("username already taken")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrAccountLocked          = errors.New("account locked")
	ErrWrongPassword          = errors.New("wrong password")
	ErrPinNotSet              = errors.New("pin not set")
	ErrPinRejected            = errors.New("pin rejected")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidUsername        = errors.New("invalid username")
	ErrInvalidPassword        = errors.New("invalid password")
	ErrInvalidPin             = errors.New("invalid pin")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrInvalidRole            = errors.New("invalid role")
	ErrInvalidTransactionKind = errors.New("invalid transaction kind")
	ErrInvalidProduct         = errors.New("invalid product")
	ErrInvalidCategory        = errors.New("invalid category")
	ErrInvalidServiceConfig   = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
