package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "with record id",
			err:      NewValidationError("UploadRecord", "rec-42", "student_id"),
			expected: `validation error for UploadRecord "rec-42": missing student_id`,
		},
		{
			name:     "without record id",
			err:      NewValidationError("EvaluationReport", "", "evaluated_at"),
			expected: "validation error for EvaluationReport: missing evaluated_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("UploadRecord", "rec-1", "uploaded_at")

	assert.True(t, errors.Is(err, ErrInvalidRecord))

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "uploaded_at", vErr.Field)
}
