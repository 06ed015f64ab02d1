// Package errors provides structured error handling for the concept-model compiler.
// It defines error codes, categories and the four failure kinds of a generation run:
// malformed type expressions, unresolved references, trait composition conflicts
// and internal consistency violations.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code in the concept-model compiler
type ErrorCode string

// ErrorCategory represents the category of compiler error
type ErrorCategory string

const (
	// CategorySyntax represents type expression syntax errors (PRS001-099)
	CategorySyntax ErrorCategory = "syntax"
	// CategoryLink represents unresolved reference errors (LNK100-199)
	CategoryLink ErrorCategory = "link"
	// CategoryComposition represents trait composition errors (CMP200-299)
	CategoryComposition ErrorCategory = "composition"
	// CategoryConsistency represents internal invariant violations (CON300-399)
	CategoryConsistency ErrorCategory = "consistency"
)

// Coded is implemented by every error produced by the compiler.
type Coded interface {
	error
	ErrorCode() ErrorCode
	ErrorCategory() ErrorCategory
}

// CompilerError carries the context shared by all compiler errors: which declaration
// triggered it and the offending raw text.
type CompilerError struct {
	// Code is the unique error code (e.g., "PRS001", "LNK101")
	Code ErrorCode `json:"code"`
	// Type is a machine-readable error type identifier
	Type string `json:"type"`
	// Category is the error category
	Category ErrorCategory `json:"category"`
	// Message is the primary error message
	Message string `json:"message"`
	// Namespace is the full name of the namespace of the declaring node
	Namespace string `json:"namespace,omitempty"`
	// Owner is the full name of the declaring entity or trait
	Owner string `json:"owner,omitempty"`
	// Property is the declaring property name
	Property string `json:"property,omitempty"`
	// Raw is the offending raw string
	Raw string `json:"raw,omitempty"`
	// Suggestion provides a hint for fixing the error
	Suggestion string `json:"suggestion,omitempty"`
}

// ErrorCode returns the error code.
func (e *CompilerError) ErrorCode() ErrorCode { return e.Code }

// ErrorCategory returns the error category.
func (e *CompilerError) ErrorCategory() ErrorCategory { return e.Category }

// Error implements the error interface
func (e *CompilerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Owner != "" {
		if e.Property != "" {
			fmt.Fprintf(&b, " (in %s.%s)", e.Owner, e.Property)
		} else {
			fmt.Fprintf(&b, " (in %s)", e.Owner)
		}
	} else if e.Namespace != "" {
		fmt.Fprintf(&b, " (in namespace %s)", e.Namespace)
	}
	return b.String()
}

// WithOwner records the declaring entity or trait and its namespace.
func (e *CompilerError) WithOwner(namespace, owner string) *CompilerError {
	e.Namespace = namespace
	e.Owner = owner
	return e
}

// WithProperty records the declaring property name.
func (e *CompilerError) WithProperty(name string) *CompilerError {
	e.Property = name
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *CompilerError) WithSuggestion(suggestion string) *CompilerError {
	e.Suggestion = suggestion
	return e
}

func newError(code ErrorCode, errType string, category ErrorCategory, message string) CompilerError {
	return CompilerError{
		Code:     code,
		Type:     errType,
		Category: category,
		Message:  message,
	}
}

// Details returns the shared context of any compiler error found in err's chain.
func Details(err error) (*CompilerError, bool) {
	var parseErr *ParseError
	if stderrors.As(err, &parseErr) {
		return &parseErr.CompilerError, true
	}
	var linkErr *LinkError
	if stderrors.As(err, &linkErr) {
		return &linkErr.CompilerError, true
	}
	var compErr *CompositionError
	if stderrors.As(err, &compErr) {
		return &compErr.CompilerError, true
	}
	var consErr *ConsistencyError
	if stderrors.As(err, &consErr) {
		return &consErr.CompilerError, true
	}
	return nil, false
}

// ToJSON returns the error as a JSON string. Errors outside the compiler taxonomy
// are reported with only a message.
func ToJSON(err error) (string, error) {
	var payload any
	switch {
	case err == nil:
		payload = nil
	default:
		if details, ok := Details(err); ok {
			payload = struct {
				*CompilerError
				Error string `json:"error"`
			}{details, err.Error()}
		} else {
			payload = map[string]string{"error": err.Error()}
		}
	}
	bytes, mErr := json.MarshalIndent(payload, "", "  ")
	if mErr != nil {
		return "", mErr
	}
	return string(bytes), nil
}
