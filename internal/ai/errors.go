package ai

import (
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// ProviderError carries which backend failed and for which operation, so
// callers can log and branch on the cause without parsing message text.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func embedErr(provider string, err error) error {
	return &ProviderError{Provider: provider, Op: "embed", Err: err}
}

func generateErr(provider string, err error) error {
	return &ProviderError{Provider: provider, Op: "generate", Err: err}
}
