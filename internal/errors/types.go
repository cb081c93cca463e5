// Package errors defines the structured error taxonomy used across mimic.
//
// Errors fall into two groups. Fatal errors (configuration problems, a
// missing template directory) abort a run before any file is touched.
// Recoverable errors (a template that cannot be read, a target that cannot
// be read or written) are logged by the caller and the run continues with
// the next template or target.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeVCS        ErrorType = "vcs"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
	ErrCodeInputNotFound       = "ERR_INPUT_NOT_FOUND"
	ErrCodeTemplateRead        = "ERR_TEMPLATE_READ"
	ErrCodeTargetIO            = "ERR_TARGET_IO"
	ErrCodeInvalidTemplateName = "ERR_INVALID_TEMPLATE_NAME"
	ErrCodeTagCollision        = "ERR_TAG_COLLISION"
	ErrCodeVCSFailed           = "ERR_VCS_FAILED"
	ErrCodeInternalError       = "ERR_INTERNAL"
)

// MimicError is a structured error type with context.
type MimicError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Template    string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *MimicError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Template != "" {
		parts = append(parts, "template:"+e.Template)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *MimicError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *MimicError) Is(target error) bool {
	var t *MimicError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *MimicError) WithContext(key string, value interface{}) *MimicError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithTemplate adds template context.
func (e *MimicError) WithTemplate(template string) *MimicError {
	e.Template = template

	return e
}

// WithPath adds file location information.
func (e *MimicError) WithPath(filePath string) *MimicError {
	e.FilePath = filePath

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *MimicError {
	return &MimicError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *MimicError {
	return &MimicError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *MimicError {
	return &MimicError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *MimicError {
	return &MimicError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var me *MimicError
	if errors.As(err, &me) {
		return me.Recoverable
	}

	return false
}

// HasErrorCode checks if an error has a specific error code.
func HasErrorCode(err error, code string) bool {
	var me *MimicError
	if errors.As(err, &me) {
		return me.Code == code
	}

	return false
}

// HasErrorType checks if an error is of a specific type.
func HasErrorType(err error, errType ErrorType) bool {
	var me *MimicError
	if errors.As(err, &me) {
		return me.Type == errType
	}

	return false
}

// GetRootCause returns the innermost error in the chain.
func GetRootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
