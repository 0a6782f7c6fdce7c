package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors on the admin surface.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
)

// Ingestion error kinds. Every error returned by Processor.Process matches exactly one of these with errors.Is.
var (
	ErrConfig         = errors.New("config error")
	ErrTransport      = errors.New("transport error")
	ErrParse          = errors.New("parse error")
	ErrDatabase       = errors.New("database error")
	ErrNoMatchingRule = errors.New("no matching rule")
)

// ErrUnsupportedType is a parse failure raised before any decoder runs.
var ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", ErrParse)

// ErrorKind names an ingestion error class.
type ErrorKind string

const (
	KindConfig         ErrorKind = "Config"
	KindTransport      ErrorKind = "Transport"
	KindParse          ErrorKind = "Parse"
	KindDatabase       ErrorKind = "Database"
	KindNoMatchingRule ErrorKind = "NoMatchingRule"
)

var kindSentinels = map[ErrorKind]error{
	KindConfig:         ErrConfig,
	KindTransport:      ErrTransport,
	KindParse:          ErrParse,
	KindDatabase:       ErrDatabase,
	KindNoMatchingRule: ErrNoMatchingRule,
}

// IngestionError carries the kind of failure plus the underlying cause.
type IngestionError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *IngestionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (e *IngestionError) Unwrap() []error {
	out := make([]error, 0, 2)
	if s, ok := kindSentinels[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

func newIngestionError(kind ErrorKind, cause error, format string, args ...any) error {
	return &IngestionError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func ConfigError(cause error, format string, args ...any) error {
	return newIngestionError(KindConfig, cause, format, args...)
}

func TransportError(cause error, format string, args ...any) error {
	return newIngestionError(KindTransport, cause, format, args...)
}

func ParseError(cause error, format string, args ...any) error {
	return newIngestionError(KindParse, cause, format, args...)
}

func DatabaseError(cause error, format string, args ...any) error {
	return newIngestionError(KindDatabase, cause, format, args...)
}

func NoMatchingRuleError(key string) error {
	return newIngestionError(KindNoMatchingRule, nil, "no rule matches key %q", key)
}

// KindOf reports the ingestion kind of err, or "" when err is not an ingestion error.
func KindOf(err error) ErrorKind {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
