package generator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorMarker prefixes texts that signal a failed generation.
const ErrorMarker = "❌"

var (
	// ErrEmptyResult means the final text is blank or carries ErrorMarker.
	ErrEmptyResult = errors.New("generation returned empty or error-marked text")

	// ErrMissingAPIKey is returned when a provider is configured without a key.
	ErrMissingAPIKey = errors.New("api key missing")
)

// ValidationError marks a request that was rejected before any provider call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	// KindBilling covers 402 Payment Required and 422 Unprocessable Entity.
	// Both have always triggered the same fallback.
	KindBilling   ErrorKind = "billing"
	KindTransport ErrorKind = "transport"
)

// ProviderError is what every LLMClient returns on failure.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf returns the classification of err; anything unclassified is transport.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransport
}

// CheckResult is the caller-side gate on the final text.
func CheckResult(text string) error {
	if strings.TrimSpace(text) == "" || strings.HasPrefix(text, ErrorMarker) {
		return ErrEmptyResult
	}
	return nil
}
