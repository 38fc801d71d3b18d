// Package errors provides centralized error definitions and error handling
// utilities for the Rostrum codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - SessionError: errors related to debate session lifecycle management
//   - ProviderError: errors from the text-generation backend
//   - StoreError: errors from the durable session store
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewSessionError("failed to restore session", errors.ErrSessionCorrupted)
//
//	// Semantic error
//	err := errors.NewNotFoundError("session", "abc123")
//
//	// With context
//	err := errors.NewProviderError("request failed", baseErr).WithStatusCode(529)
//
// Checking errors:
//
//	// Check for specific sentinel errors
//	if errors.Is(err, errors.ErrSessionNotFound) { ... }
//
//	// Check for error types
//	var provErr *errors.ProviderError
//	if errors.As(err, &provErr) { ... }
//
//	// Use classification helpers
//	if errors.IsRetryable(err) { ... }
//	if errors.IsUserFacing(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrSessionNotFound indicates that a debate session could not be found.
	ErrSessionNotFound = New("session not found")
	// ErrSessionExists indicates that a session with the same ID is already registered.
	ErrSessionExists = New("session already exists")
	// ErrSessionCorrupted indicates that persisted session data failed validation.
	ErrSessionCorrupted = New("session data corrupted")
	// ErrAlreadyRunning indicates that a debate loop is already active for the session.
	ErrAlreadyRunning = New("debate already running")
	// ErrNotResumable indicates that a session is not in a resumable state.
	ErrNotResumable = New("session not resumable")
	// ErrSessionActive indicates that an operation requires a terminal session.
	ErrSessionActive = New("session still active")
)

// Provider-related sentinel errors
var (
	// ErrEmptyResponse indicates that the backend stream ended without content.
	ErrEmptyResponse = New("empty response from provider")
	// ErrMissingCredential indicates that no API credential was supplied.
	ErrMissingCredential = New("missing provider credential")
)

// Store-related sentinel errors
var (
	// ErrStoreClosed indicates that the store has been shut down.
	ErrStoreClosed = New("store is closed")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// RostrumError is the base interface for all Rostrum errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type RostrumError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SessionError represents errors related to debate session lifecycle.
//
// Example:
//
//	err := errors.NewSessionError("failed to restore session", errors.ErrSessionCorrupted)
//	err = err.WithSessionID("abc123")
//	fmt.Println(err) // "session error [session=abc123]: failed to restore session: session data corrupted"
type SessionError struct {
	baseError
	SessionID string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// WithSeverity sets the error severity.
func (e *SessionError) WithSeverity(s Severity) *SessionError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *SessionError) WithRetryable(r bool) *SessionError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	prefix := "session error"
	if e.SessionID != "" {
		prefix = fmt.Sprintf("session error [session=%s]", e.SessionID)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ProviderError represents errors from the text-generation backend.
//
// Example:
//
//	err := errors.NewProviderError("messages request failed", cause)
//	err = err.WithStatusCode(429).WithAPIType("rate_limit_error").WithRetryable(true)
type ProviderError struct {
	baseError
	StatusCode int
	APIType    string
	Attempts   int
}

// NewProviderError creates a new ProviderError.
func NewProviderError(message string, cause error) *ProviderError {
	return &ProviderError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: false,
		},
	}
}

// WithStatusCode adds the HTTP status code to the error context.
func (e *ProviderError) WithStatusCode(code int) *ProviderError {
	e.StatusCode = code
	return e
}

// WithAPIType adds the backend's error type string to the error context.
func (e *ProviderError) WithAPIType(apiType string) *ProviderError {
	e.APIType = apiType
	return e
}

// WithAttempts records how many attempts were made before giving up.
func (e *ProviderError) WithAttempts(n int) *ProviderError {
	e.Attempts = n
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *ProviderError) WithRetryable(r bool) *ProviderError {
	e.retryable = r
	return e
}

// WithSeverity sets the error severity.
func (e *ProviderError) WithSeverity(s Severity) *ProviderError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ProviderError) Error() string {
	var parts []string
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.APIType != "" {
		parts = append(parts, fmt.Sprintf("type=%s", e.APIType))
	}
	if e.Attempts > 0 {
		parts = append(parts, fmt.Sprintf("attempts=%d", e.Attempts))
	}

	prefix := "provider error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("provider error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ProviderError) Is(target error) bool {
	if _, ok := target.(*ProviderError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StoreError represents errors from the durable session store.
//
// Example:
//
//	err := errors.NewStoreError("persist snapshot", cause)
//	err = err.WithPath("/data/sessions/abc.json").WithRetryable(true)
type StoreError struct {
	baseError
	Op   string
	Path string
}

// NewStoreError creates a new StoreError. The op names the store operation
// that failed, e.g. "persist snapshot" or "quarantine".
func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{
			message:    op,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: false,
		},
		Op: op,
	}
}

// WithPath adds the affected file path to the error context.
func (e *StoreError) WithPath(path string) *StoreError {
	e.Path = path
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *StoreError) WithRetryable(r bool) *StoreError {
	e.retryable = r
	return e
}

// WithSeverity sets the error severity.
func (e *StoreError) WithSeverity(s Severity) *StoreError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	prefix := "store error"
	if e.Path != "" {
		prefix = fmt.Sprintf("store error [path=%s]", e.Path)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("session", "abc123")
//	fmt.Println(err) // "session 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if errors.Is(target, ErrSessionNotFound) {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("session", "abc123")
//	fmt.Println(err) // "session 'abc123' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	if errors.Is(target, ErrSessionExists) {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("topic cannot be empty")
//	err = err.WithField("topic").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Message returns the validation message without the field and value
// context. API responses use it to report problems per field.
func (e *ValidationError) Message() string {
	return e.message
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for provider response", 120*time.Second)
//	fmt.Println(err) // "timeout error: waiting for provider response (timeout: 2m0s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true, // Timeouts are generally retryable
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// WithRetryable sets whether the error is retryable (default true for timeouts).
func (e *TimeoutError) WithRetryable(r bool) *TimeoutError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing RostrumError with IsRetryable() returning true
//   - TimeoutError instances
//   - Errors wrapping ErrTimeout or ErrEmptyResponse
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    time.Sleep(backoff)
//	    return retry(operation)
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements RostrumError
	var rerr RostrumError
	if As(err, &rerr) {
		return rerr.IsRetryable()
	}

	// Check for known retryable sentinel errors
	if Is(err, ErrTimeout) || Is(err, ErrEmptyResponse) {
		return true
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
// This checks for:
//   - Errors implementing RostrumError with IsUserFacing() returning true
//   - Semantic errors (NotFoundError, AlreadyExistsError, ValidationError, TimeoutError)
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    displayToUser(err.Error())
//	} else {
//	    displayToUser("An internal error occurred")
//	    log.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements RostrumError
	var rerr RostrumError
	if As(err, &rerr) {
		return rerr.IsUserFacing()
	}

	// Semantic errors are always user-facing
	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	if As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout) {
		return true
	}

	return false
}

// IsNotFound returns true if the error indicates a missing resource,
// either a NotFoundError or anything wrapping ErrSessionNotFound.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFound *NotFoundError
	return As(err, &notFound) || Is(err, ErrSessionNotFound)
}

// IsValidation returns true if the error indicates rejected input.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validation *ValidationError
	return As(err, &validation) || Is(err, ErrInvalidInput)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement RostrumError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    alertOnCall(err)
//	case errors.SeverityError:
//	    log.Error("error occurred", "err", err)
//	case errors.SeverityWarning:
//	    log.Warn("warning", "err", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	// Check if error implements RostrumError
	var rerr RostrumError
	if As(err, &rerr) {
		return rerr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to process request")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to persist session %s", sessionID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
