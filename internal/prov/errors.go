package prov

import (
	"errors"
	"fmt"
)

// ModelError represents a violation of the provenance model's rules.
//
// Model errors are raised at the point of construction or merge and abort
// the triggering call. The document is left as it was before the failing
// call; there is no rollback of earlier calls.
type ModelError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Value is the offending input, rendered as text (optional).
	Value string
}

// ErrorCode categorizes model errors.
type ErrorCode string

const (
	// ErrCodeInvalidQualifiedName indicates a string or URI could not be
	// resolved against any namespace in the manager chain.
	ErrCodeInvalidQualifiedName ErrorCode = "INVALID_QUALIFIED_NAME"

	// ErrCodeInvalidAttributeValue indicates a value could not be coerced to
	// the type required by its attribute.
	ErrCodeInvalidAttributeValue ErrorCode = "INVALID_ATTRIBUTE_VALUE"

	// ErrCodeAttributeConflict indicates a second, differing value for a
	// single-valued formal attribute.
	ErrCodeAttributeConflict ErrorCode = "ATTRIBUTE_CONFLICT"

	// ErrCodeMissingIdentifier indicates an element without an identifier.
	ErrCodeMissingIdentifier ErrorCode = "MISSING_IDENTIFIER"

	// ErrCodeStructuralViolation indicates nested bundles or a bundle
	// identifier collision.
	ErrCodeStructuralViolation ErrorCode = "STRUCTURAL_VIOLATION"

	// ErrCodeUnsupportedWireConstruct indicates decoded data the model
	// cannot represent.
	ErrCodeUnsupportedWireConstruct ErrorCode = "UNSUPPORTED_WIRE_CONSTRUCT"
)

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidQualifiedNameError creates a ModelError for an unresolvable name.
func NewInvalidQualifiedNameError(value any) *ModelError {
	return &ModelError{
		Code:    ErrCodeInvalidQualifiedName,
		Message: "invalid qualified name",
		Value:   fmt.Sprint(value),
	}
}

// NewInvalidAttributeValueError creates a ModelError for a value that does
// not fit its attribute.
func NewInvalidAttributeValueError(attr QualifiedName, value any) *ModelError {
	return &ModelError{
		Code:    ErrCodeInvalidAttributeValue,
		Message: fmt.Sprintf("invalid value for attribute %s", attr),
		Value:   fmt.Sprint(value),
	}
}

// NewAttributeConflictError creates a ModelError for a second value on a
// single-valued formal attribute.
func NewAttributeConflictError(attr QualifiedName, existing, value Value) *ModelError {
	return &ModelError{
		Code:    ErrCodeAttributeConflict,
		Message: fmt.Sprintf("cannot have more than one value for attribute %s", attr),
		Value:   fmt.Sprintf("%s != %s", FormatValue(existing), FormatValue(value)),
	}
}

// NewMissingIdentifierError creates a ModelError for an element without an identifier.
func NewMissingIdentifierError(kind Kind) *ModelError {
	return &ModelError{
		Code:    ErrCodeMissingIdentifier,
		Message: fmt.Sprintf("%s requires an identifier", kind),
	}
}

// NewStructuralError creates a ModelError for a container rule violation.
func NewStructuralError(message string) *ModelError {
	return &ModelError{
		Code:    ErrCodeStructuralViolation,
		Message: message,
	}
}

// NewUnsupportedWireError creates a ModelError for decoded data that cannot
// be represented.
func NewUnsupportedWireError(message, value string) *ModelError {
	return &ModelError{
		Code:    ErrCodeUnsupportedWireConstruct,
		Message: message,
		Value:   value,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsInvalidQualifiedName reports whether err is an invalid qualified name error.
// Uses errors.As to handle wrapped errors.
func IsInvalidQualifiedName(err error) bool {
	return hasCode(err, ErrCodeInvalidQualifiedName)
}

// IsInvalidAttributeValue reports whether err is an invalid attribute value error.
func IsInvalidAttributeValue(err error) bool {
	return hasCode(err, ErrCodeInvalidAttributeValue)
}

// IsAttributeConflict reports whether err is an attribute conflict error.
func IsAttributeConflict(err error) bool {
	return hasCode(err, ErrCodeAttributeConflict)
}

// IsMissingIdentifier reports whether err is a missing identifier error.
func IsMissingIdentifier(err error) bool {
	return hasCode(err, ErrCodeMissingIdentifier)
}

// IsStructuralViolation reports whether err is a structural violation.
func IsStructuralViolation(err error) bool {
	return hasCode(err, ErrCodeStructuralViolation)
}

// IsUnsupportedWireConstruct reports whether err is an unsupported wire construct error.
func IsUnsupportedWireConstruct(err error) bool {
	return hasCode(err, ErrCodeUnsupportedWireConstruct)
}
