package shop

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrBadTransition   = errors.New("illegal order status transition")
	ErrConnection      = errors.New("store unreachable")
)

// ValidationError rejects input before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError carries what the caller needs to re-prompt:
// which product, how much is left, how much was asked for.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// TxError is a write failure inside the placement transaction. The
// transaction was rolled back; callers may retry.
type TxError struct {
	Step string
	Err  error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction failed at %s: %v", e.Step, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// RollbackError means the rollback after a failed write itself failed.
// Store state is uncertain; not retryable, needs operator attention.
type RollbackError struct {
	Cause error // the failure that triggered the rollback
	Err   error // the rollback failure
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (after: %v)", e.Err, e.Cause)
}

func (e *RollbackError) Unwrap() error { return e.Cause }
