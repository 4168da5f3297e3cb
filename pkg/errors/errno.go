// Package errors provides the structured error codes of camaral-bot.
//
// Error code format: AABBCCC (7 digits)
//
//	AA  (00-99): service code, 00 common, 30 bot
//	BB  (00-99): category code
//	CCC (000-999): sequence within the category
//
// Usage:
//
//	return errors.ErrProvider.WithCause(err)
//	return errors.ErrInvalidArgument.WithMessagef("chunks=%d vectors=%d", n, m)
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Service codes.
const (
	ServiceCommon = 0
	ServiceBot    = 30
)

// Category codes.
const (
	CategorySuccess  = 0
	CategoryRequest  = 1
	CategoryAuth     = 2
	CategoryResource = 4
	CategoryInternal = 7
	CategoryCache    = 9
	CategoryNetwork  = 10
	CategoryTimeout  = 11
	CategoryConfig   = 12
)

// MakeCode builds an AABBCCC code.
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// Errno is a registered error code with its HTTP mapping.
type Errno struct {
	Code    int    `json:"code"`
	HTTP    int    `json:"-"`
	Message string `json:"message"`

	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Is matches any Errno carrying the same code.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

// WithCause returns a copy of e wrapping cause.
func (e *Errno) WithCause(cause error) *Errno {
	c := *e
	c.cause = cause
	return &c
}

// WithMessage returns a copy of e with a custom message.
func (e *Errno) WithMessage(msg string) *Errno {
	c := *e
	c.Message = msg
	return &c
}

// WithMessagef returns a copy of e with a formatted message.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// HTTPStatus returns the HTTP status, defaulting to 500.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

var (
	registry   = make(map[int]*Errno)
	registryMu sync.RWMutex
)

// Register records e and panics on a duplicate code.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := registry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, existing.Message))
	}
	registry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[code]
	return e, ok
}

// FromError extracts the first Errno in err's chain, or wraps err in ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}
