package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/peppol-bookkeeping/internal/model"
)

func TestSplitPeppolID(t *testing.T) {
	tests := []struct {
		name     string
		peppolID string
		scheme   string
		value    string
		ok       bool
	}{
		{"valid", "0208:BE0123456789", "0208", "BE0123456789", true},
		{"valid numeric value", "9925:0123456789", "9925", "0123456789", true},
		{"missing separator", "0208BE0123456789", "", "", false},
		{"two separators", "0208:BE:0123456789", "", "", false},
		{"empty scheme", ":BE0123456789", "", "", false},
		{"empty value", "0208:", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.Party{PeppolID: tt.peppolID}
			scheme, value, ok := p.SplitPeppolID()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestIsKnownVATCategory(t *testing.T) {
	for _, code := range []model.VATCategory{"S", "Z", "E", "AE", "K", "G", "O", "L", "M"} {
		assert.True(t, model.IsKnownVATCategory(code), string(code))
	}
	assert.False(t, model.IsKnownVATCategory("X"))
	assert.False(t, model.IsKnownVATCategory(""))
	assert.False(t, model.IsKnownVATCategory("s"))
}

func TestErrorMessages(t *testing.T) {
	validation := model.NewValidationError(0, "quantity", "-1", "must be non-negative")
	assert.Contains(t, validation.Error(), "line 0")
	assert.Contains(t, validation.Error(), "quantity")

	schema := model.NewSchemaViolationError("EndpointID", "buyer endpoint identifier missing")
	assert.Contains(t, schema.Error(), "EndpointID")

	incomplete := &model.IncompleteDocumentError{Missing: []string{"ID", "IssueDate"}}
	assert.Contains(t, incomplete.Error(), "ID")
	assert.Contains(t, incomplete.Error(), "IssueDate")
}
