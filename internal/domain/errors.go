package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState        = errors.New("operation not allowed in the current state")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidAddress      = errors.New("invalid wallet address")
	ErrNotFound            = errors.New("not found")
	ErrNotAuthenticated    = errors.New("user is not authenticated")
	ErrWalletNotSet        = errors.New("wallet address not set")
	ErrPaymentNotConfirmed = errors.New("payment transaction is not confirmed")
)

// ValidationError is bad caller input. Message is shown to the caller as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type TransitionError struct {
	From Status
	To   Status
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Err, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// NetworkError is a transport failure or timeout. Safe to retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RPCError carries the error object returned by a JSON-RPC node.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return e.Message
}

type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SubscriptionError terminates the subscription it is delivered on.
type SubscriptionError struct {
	Path string
	Err  error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s failed: %v", e.Path, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
