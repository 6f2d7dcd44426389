package validation

import (
	"encoding/json"
	"fmt"

	"github.com/openarcloud/ssd/pkg/ssr"
)

// SchemaError reports SSR text that is not valid JSON or does not conform to
// the SSR schema. Err is the JSON syntax error or the first *ValidationError.
type SchemaError struct {
	FileName string
	Err      error
	Result   *ValidationResult
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unable to parse file content: %s, %v", e.FileName, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

var defaultValidator = NewValidator(nil)

// ValidateSSR parses text as JSON and validates it against the SSR schema.
// fileName only serves to give the error context and may be empty.
func ValidateSSR(text, fileName string) error {
	return defaultValidator.ValidateText(text, fileName)
}

// ValidateText parses text as JSON and validates it against the SSR schema
func (v *Validator) ValidateText(text, fileName string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return &SchemaError{FileName: fileName, Err: err}
	}

	result := v.Validate(doc)
	if !result.Valid {
		return &SchemaError{FileName: fileName, Err: result.Errors[0], Result: result}
	}
	return nil
}

// ValidateRecord validates an in-memory record by round-tripping it through
// its JSON form
func ValidateRecord(record ssr.SSR) error {
	text, err := record.Marshal()
	if err != nil {
		return err
	}
	name := record.ID
	if name == "" {
		name = "draft"
	}
	return ValidateSSR(text, name)
}
