// Package errs defines the typed error kinds shared by the orchestration
// engine and the model gateway (spec §7). Each kind is a small struct
// implementing error and carrying whatever id correlates the failure;
// NetworkError and ExhaustedError also implement Unwrap. Retryable reports
// whether a kind is retryable. The Code constants name the kinds, but the
// structs do not carry a Code field and their Error strings do not include
// one.
package errs

import "fmt"

// Code is a short, stable error classifier.
type Code string

const (
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeCycle       Code = "CYCLE_ERROR"
	CodeScheduling  Code = "SCHEDULING_ERROR"
	CodeAuth        Code = "AUTH_ERROR"
	CodeRateLimit   Code = "RATE_LIMIT_ERROR"
	CodeNetwork     Code = "NETWORK_ERROR"
	CodeProvider    Code = "PROVIDER_ERROR"
	CodeExhausted   Code = "EXHAUSTED_ERROR"
)

// ValidationError signals a malformed input: a missing required field or an
// unrecognized id.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// CycleError signals that the dependency graph contains a directed cycle.
// TaskID names one task on the offending cycle.
type CycleError struct {
	TaskID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle error: dependency cycle detected at task %q", e.TaskID)
}

// SchedulingError signals that CPM produced a negative total float while
// running in strict mode.
type SchedulingError struct {
	TaskID string
	Float  float64
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling error: task %q has negative total float %.4f", e.TaskID, e.Float)
}

// AuthError signals a 401/403 from a provider. Non-retryable.
type AuthError struct {
	Provider string
	Status   int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: provider %q returned status %d", e.Provider, e.Status)
}

// RateLimitError signals a 429 from a provider. Retryable per policy.
type RateLimitError struct {
	Provider   string
	RetryAfter string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit error: provider %q", e.Provider)
}

// NetworkError signals a transport failure or timeout. Retryable.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: provider %q: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProviderError signals a 5xx or malformed response body. Retryable.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %q status %d: %s", e.Provider, e.Status, e.Message)
}

// ExhaustedError signals that every candidate was tried and all failed. It
// carries the last underlying error for diagnosis.
type ExhaustedError struct {
	RequestID string
	Tried     []string
	Last      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted error: request %q: all %d candidate(s) failed, last: %v", e.RequestID, len(e.Tried), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Retryable reports whether the error's kind is retryable under the
// gateway's retry/cascade policy (§7). Unknown error types are treated as
// non-retryable.
func Retryable(err error) bool {
	switch err.(type) {
	case *RateLimitError, *NetworkError, *ProviderError:
		return true
	default:
		return false
	}
}
