package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/ai-visibility/internal/schemas"
)

// Parse stages reported by ParseError.
const (
	StageEmpty  = "empty"
	StageSchema = "schema"
	StageDecode = "decode"
)

// ParseError explains why an LLM output could not be used as structured data.
type ParseError struct {
	Stage string
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("malformed LLM output (%s)", e.Stage)
	}
	return fmt.Sprintf("malformed LLM output (%s): %v", e.Stage, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parsed is the outcome of a strict parse. Callers use Value only when Ok.
type Parsed[T any] struct {
	Value T
	Err   *ParseError
}

// Ok reports whether the output parsed and validated.
func (p Parsed[T]) Ok() bool {
	return p.Err == nil
}

// ParseJSON cleans raw, validates it against the embedded schema named schemaName
// (skipped when empty) and decodes it into T.
func ParseJSON[T any](raw, schemaName string) Parsed[T] {
	var out Parsed[T]

	cleaned := CleanJSONBlock(raw)
	if strings.TrimSpace(cleaned) == "" {
		out.Err = &ParseError{Stage: StageEmpty, Raw: raw}
		return out
	}

	if schemaName != "" {
		if err := schemas.Validate(schemaName, []byte(cleaned)); err != nil {
			out.Err = &ParseError{Stage: StageSchema, Raw: raw, Cause: err}
			return out
		}
	}

	if err := json.Unmarshal([]byte(cleaned), &out.Value); err != nil {
		out.Err = &ParseError{Stage: StageDecode, Raw: raw, Cause: err}
	}
	return out
}
