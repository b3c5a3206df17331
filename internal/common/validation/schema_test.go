package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "category": {"type": "string", "enum": ["AssignmentAccepted", "AssignmentCancelled"]},
    "assignmentId": {"type": "string", "minLength": 1}
  },
  "required": ["category", "assignmentId"]
}`

func TestSchema_Validate(t *testing.T) {
	s, err := CompileSchema(testSchema)
	require.NoError(t, err)

	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{
			name:      "valid",
			input:     map[string]interface{}{"category": "AssignmentAccepted", "assignmentId": "A-1"},
			wantValid: true,
		},
		{
			name:      "missing assignment",
			input:     map[string]interface{}{"category": "AssignmentAccepted"},
			wantField: "assignmentId",
		},
		{
			name:      "unknown category",
			input:     map[string]interface{}{"category": "Nope", "assignmentId": "A-1"},
			wantField: "category",
		},
		{
			name:      "empty assignment",
			input:     map[string]interface{}{"category": "AssignmentCancelled", "assignmentId": ""},
			wantField: "assignmentId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Validate(tt.input)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantField != "" {
				assert.True(t, res.HasErrors(tt.wantField), res.GetErrorMessages())
			}
		})
	}
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompileSchema(`not json`) })
}
