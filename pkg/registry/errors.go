package registry

import (
	"errors"
	"fmt"
)

// Registry error kinds.
var (
	// ErrEmptyResult means the search endpoint matched nothing.
	ErrEmptyResult = errors.New("no results")
	// ErrInvalidResponse means an endpoint returned an error or malformed payload.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrUnknownProvider means no provider is registered under a keyword.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Error provides detailed error information for a failed registry call.
type Error struct {
	Type       error
	Provider   string
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	prefix := e.Type.Error()
	if e.Provider != "" {
		prefix = e.Provider + ": " + prefix
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return prefix
}

func (e *Error) Unwrap() error {
	return e.Type
}

// NewError creates a registry error for a provider.
func NewError(provider string, errType error, message string) *Error {
	return &Error{
		Type:     errType,
		Provider: provider,
		Message:  message,
	}
}
