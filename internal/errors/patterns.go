package errors

import (
	"fmt"
)

// Pattern Guidelines:
// 1. Fatal conditions (config, missing input) are not recoverable
// 2. Per-template and per-target failures are recoverable; the caller logs
//    them and moves on
// 3. Wrap the underlying error as Cause so errors.Is/As keep working

// ConfigurationError reports an invalid or missing setting. Fatal.
func ConfigurationError(setting, message string, value interface{}) *MimicError {
	return NewConfigError(
		ErrCodeConfigInvalid,
		fmt.Sprintf("invalid configuration for %s: %s", setting, message),
	).WithContext("setting", setting).WithContext("value", value)
}

// InputNotFound reports a missing template directory or selection root. Fatal.
func InputNotFound(path string, cause error) *MimicError {
	return NewIOError(
		ErrCodeInputNotFound,
		fmt.Sprintf("input directory %q does not exist", path),
		cause,
	).WithPath(path)
}

// TemplateReadError reports a template that could not be read. The
// template is skipped.
func TemplateReadError(template, path string, cause error) *MimicError {
	err := NewIOError(ErrCodeTemplateRead, "failed to read template", cause).
		WithTemplate(template).
		WithPath(path)
	err.Recoverable = true

	return err
}

// TargetIOError reports a target read, write or copy failure. Only that
// target is skipped.
func TargetIOError(operation, path string, cause error) *MimicError {
	err := NewIOError(ErrCodeTargetIO, fmt.Sprintf("target %s failed", operation), cause).
		WithPath(path).
		WithContext("operation", operation)
	err.Recoverable = true

	return err
}

// InvalidTemplateName reports a template identifier that cannot produce a
// tag pair.
func InvalidTemplateName(name string) *MimicError {
	return NewValidationError(
		ErrCodeInvalidTemplateName,
		fmt.Sprintf("invalid template name %q", name),
	).WithTemplate(name)
}

// TagCollision reports two templates that derive the same tag pair.
func TagCollision(template, other, path string) *MimicError {
	return NewValidationError(
		ErrCodeTagCollision,
		fmt.Sprintf("tags collide with template %q", other),
	).WithTemplate(template).WithPath(path)
}

// VCSError wraps a failed git operation.
func VCSError(operation, message string, cause error) *MimicError {
	return &MimicError{
		Type:    ErrorTypeVCS,
		Code:    ErrCodeVCSFailed,
		Message: fmt.Sprintf("git %s failed: %s", operation, message),
		Cause:   cause,
	}
}
