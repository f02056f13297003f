package domain

import (
	"errors"
	"fmt"
)

// Error codes used across the analysis pipeline
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeParseError        = "PARSE_ERROR"
	ErrCodeAnalysisError     = "ANALYSIS_ERROR"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeInvalidThreshold  = "INVALID_THRESHOLD"
	ErrCodeDuplicateOrigin   = "DUPLICATE_ORIGIN"
)

// ErrExecutionAborted is returned by a registry after an identity collision has
// failed the execution.
var ErrExecutionAborted = errors.New("execution aborted after an identity collision")

// ErrReportSealed is recorded when issues are added to a sealed report.
var ErrReportSealed = errors.New("report is sealed")

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewValidationError creates a validation error without a cause
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, "file not found: "+path, cause)
}

// NewAnalysisError creates an analysis error
func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, "unsupported format: "+format, nil)
}

// NewInvalidThresholdError creates a threshold configuration error. These are
// raised while loading configuration, before any report is parsed.
func NewInvalidThresholdError(message string) error {
	return NewDomainError(ErrCodeInvalidThreshold, message, nil)
}

// ParseError reports that a parser could not read its input at all.
type ParseError struct {
	File  string
	Cause error
}

// NewParseError creates a parse error for the given input name
func NewParseError(file string, cause error) *ParseError {
	return &ParseError{File: file, Cause: cause}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("parse error: %v", e.Cause)
	}
	return fmt.Sprintf("parse error in %s: %v", e.File, e.Cause)
}

// Unwrap returns the underlying cause
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// DuplicateOriginError is raised when a second report claims an origin that is
// already registered and aggregation is disabled.
type DuplicateOriginError struct {
	Origin   string
	Existing string
}

// Error returns the collision message shown to users
func (e *DuplicateOriginError) Error() string {
	return fmt.Sprintf("ID %s is already used by another action: %s", e.Origin, e.Existing)
}

