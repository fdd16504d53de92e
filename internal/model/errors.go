package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports bad input to the calculator: negative or
// out-of-range values on an invoice line. Line is the zero-based index of
// the offending line, or -1 for document-level failures.
type ValidationError struct {
	Line    int
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("validation failed on line %d: %s: %s (value=%v)", e.Line, e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation failed on %s: %s (value=%v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(line int, field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Line:    line,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IncompleteDocumentError means the serializer was asked to emit a document
// missing mandatory data. It lists every missing field, so a caller fixes
// them in one pass.
type IncompleteDocumentError struct {
	Missing []string
}

func (e *IncompleteDocumentError) Error() string {
	return fmt.Sprintf("incomplete invoice document, missing: %v", e.Missing)
}

// MalformedXMLError means the input is not well-formed XML.
type MalformedXMLError struct {
	Cause error
}

func (e *MalformedXMLError) Error() string {
	return fmt.Sprintf("malformed XML: %v", e.Cause)
}

func (e *MalformedXMLError) Unwrap() error {
	return e.Cause
}

// SchemaViolationError means the XML is well-formed but missing a mandatory
// element or attribute, carries an unknown root element, or uses a value
// outside the accepted code lists.
type SchemaViolationError struct {
	Element string
	Message string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Element, e.Message)
}

// NewSchemaViolationError creates a new schema violation error
func NewSchemaViolationError(element, message string) *SchemaViolationError {
	return &SchemaViolationError{Element: element, Message: message}
}

// UnsupportedVersionError means the document's customization or profile
// identifier does not match a supported Peppol BIS Billing 3.0 profile.
type UnsupportedVersionError struct {
	CustomizationID string
	ProfileID       string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported UBL customization %q / profile %q", e.CustomizationID, e.ProfileID)
}

// UnsupportedFeatureError reports a document feature the codec deliberately
// does not handle yet, such as embedded binary attachments.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported feature: %s", e.Feature)
}

// TotalsMismatchError means the totals declared in a received document do
// not match the totals recomputed from its lines. Both values are carried
// so the caller can log or reconcile; the parser never silently corrects.
type TotalsMismatchError struct {
	Declared   decimal.Decimal
	Recomputed decimal.Decimal
}

func (e *TotalsMismatchError) Error() string {
	return fmt.Sprintf("declared tax-inclusive total %s does not match recomputed %s",
		e.Declared.StringFixed(2), e.Recomputed.StringFixed(2))
}
