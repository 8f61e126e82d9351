// Package schemas validates LLM outputs and data files against embedded JSON Schemas.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Embedded schema names.
const (
	CompetitorList       = "competitor_list"
	CompetitorValidation = "competitor_validation"
	FallbackTables       = "fallback_tables"
)

//go:embed json/*.schema.json
var schemaFS embed.FS

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Schema returns the embedded schema text for name.
func Schema(name string) (string, error) {
	data, err := schemaFS.ReadFile("json/" + name + ".schema.json")
	if err != nil {
		return "", &SchemaLoadError{Path: name, Message: "unknown schema", Cause: err}
	}
	return string(data), nil
}

// MustSchema is Schema for names known at compile time.
func MustSchema(name string) string {
	s, err := Schema(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Names lists the embedded schemas.
func Names() []string {
	entries, err := schemaFS.ReadDir("json")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".schema.json"))
	}
	return names
}

// Validate validates a document against the embedded schema name.
func Validate(name string, doc []byte) error {
	schema, err := Schema(name)
	if err != nil {
		return err
	}
	return validate(name, gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(doc))
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	return validate("(string schema)", gojsonschema.NewStringLoader(schemaContent), gojsonschema.NewStringLoader(jsonContent))
}

func validate(path string, schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    path,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
