package common

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// NotEmpty requires a non-empty string slice.
func NotEmpty(fieldName string, value interface{}) *ValidationError {
	if s, ok := value.([]string); ok && len(s) > 0 {
		return nil
	}
	return &ValidationError{Field: fieldName, Value: value, Message: "must not be empty"}
}

// Positive requires an int greater than zero.
func Positive(fieldName string, value interface{}) *ValidationError {
	if n, ok := value.(int); ok && n > 0 {
		return nil
	}
	return &ValidationError{Field: fieldName, Value: value, Message: "must be greater than zero"}
}

// Between requires an int in [min, max].
func Between(min, max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		n, ok := value.(int)
		if !ok || n < min || n > max {
			return &ValidationError{Field: fieldName, Value: value, Message: fmt.Sprintf("must be between %d and %d", min, max)}
		}
		return nil
	}
}

// OneOf requires a string from the allowed set.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, _ := value.(string)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return &ValidationError{Field: fieldName, Value: value, Message: "must be one of " + strings.Join(allowed, ", ")}
	}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Identifier requires a plain SQL identifier (letters, digits, underscore).
func Identifier(fieldName string, value interface{}) *ValidationError {
	s, _ := value.(string)
	if !identifierRe.MatchString(s) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must match " + identifierRe.String()}
	}
	return nil
}

// Regexp requires a string that compiles as a regular expression.
func Regexp(fieldName string, value interface{}) *ValidationError {
	s, _ := value.(string)
	if _, err := regexp.Compile(s); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid regular expression: " + err.Error()}
	}
	return nil
}
