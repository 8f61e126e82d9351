package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemas_ValidJSON(t *testing.T) {
	names := Names()
	require.ElementsMatch(t, []string{CompetitorList, CompetitorValidation, FallbackTables}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			var v interface{}
			assert.NoError(t, json.Unmarshal([]byte(MustSchema(name)), &v))
		})
	}
}

func TestSchema_Unknown(t *testing.T) {
	_, err := Schema("nope")
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.Panics(t, func() { MustSchema("nope") })
}

func TestValidate_CompetitorList(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantError bool
	}{
		{"valid list", `["Etsy", "eBay"]`, false},
		{"empty list", `[]`, false},
		{"object instead of array", `{"competitors": ["Etsy"]}`, true},
		{"empty name", `["Etsy", ""]`, true},
		{"number entry", `["Etsy", 3]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(CompetitorList, []byte(tt.doc))
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidate_CompetitorValidation(t *testing.T) {
	assert.NoError(t, Validate(CompetitorValidation, []byte(`{"score": 72, "industry": 25, "reason": "same market"}`)))
	assert.Error(t, Validate(CompetitorValidation, []byte(`{"score": 140}`)))
	assert.Error(t, Validate(CompetitorValidation, []byte(`{"reason": "no score"}`)))
}

func TestValidate_FallbackTables(t *testing.T) {
	valid := `{"default_bucket": "ecommerce", "buckets": {"ecommerce": {"keywords": ["shop"], "brands": ["Amazon"]}}}`
	assert.NoError(t, Validate(FallbackTables, []byte(valid)))

	assert.Error(t, Validate(FallbackTables, []byte(`{"buckets": {"fashion": {"brands": []}}}`)))
	assert.Error(t, Validate(FallbackTables, []byte(`{"buckets": {}}`)))
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(CompetitorList, []byte(`["Etsy",`))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`

	assert.NoError(t, ValidateJSONString(schemaContent, `{"name": "test"}`))
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`

	err := ValidateJSONString(schemaContent, `{"age": 30}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_NestedFieldPath(t *testing.T) {
	schemaContent := `{
		"type": "object",
		"required": ["person"],
		"properties": {
			"person": {
				"type": "object",
				"required": ["name"],
				"properties": {"name": {"type": "string"}}
			}
		}
	}`

	err := ValidateJSONString(schemaContent, `{"person": {}}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.NotEmpty(t, validationErr.Errors)
	assert.Equal(t, "person", validationErr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
}
