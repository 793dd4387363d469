// Package provider defines the uniform interface over translation
// backends and holds one implementation per supported service.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Capability is the static per-backend descriptor the engine uses to
// pick a dispatch strategy. It is never mutated at runtime.
type Capability struct {
	// SupportsBatch reports whether TranslateBatch is implemented.
	SupportsBatch bool
	// MaxBatchSize is the largest batch one request may carry.
	MaxBatchSize int
	// PreservesMarkup reports whether the backend can be trusted with
	// raw markup. Backends without it receive isolated text.
	PreservesMarkup bool
	// RateLimitHint is the backend's suggested minimum spacing between
	// requests.
	RateLimitHint time.Duration
}

// Provider is a single translation backend.
type Provider interface {
	Name() string
	Capability() Capability

	// Translate translates one string into targetLang.
	Translate(ctx context.Context, text, targetLang string) (string, error)

	// TranslateBatch translates texts into targetLang, returning results
	// in input order. It fails atomically: either every text is
	// translated or an error is returned for the whole batch. Providers
	// whose Capability lacks SupportsBatch return ErrBatchUnsupported.
	TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error)
}

// ErrBatchUnsupported is returned by TranslateBatch on single-string
// backends.
var ErrBatchUnsupported = errors.New("provider does not support batch translation")

// BackendError is a failed backend call, classified for retry purposes.
type BackendError struct {
	Provider  string
	Status    int
	Message   string
	Transient bool
}

func (e *BackendError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s backend error (status %d): %s", e.Provider, kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s backend error: %s", e.Provider, kind, e.Message)
}

// IsTransient reports whether err is a backend failure worth retrying
// (rate limiting, server errors, network failures).
func IsTransient(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Transient
	}
	return false
}

// statusError builds a BackendError from an HTTP status code. 429 and
// 5xx are retryable; everything else (auth, malformed request) is not.
func statusError(providerName string, status int, message string) *BackendError {
	return &BackendError{
		Provider:  providerName,
		Status:    status,
		Message:   message,
		Transient: status == 429 || status >= 500,
	}
}

// networkError wraps a transport-level failure, always transient.
func networkError(providerName string, err error) *BackendError {
	return &BackendError{
		Provider:  providerName,
		Message:   err.Error(),
		Transient: true,
	}
}
