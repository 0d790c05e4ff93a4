// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "agentkit-workers/internal/common/errors"
)

// ValidationError describes one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks document against a JSON schema given as decoded JSON. An empty schema
// accepts everything. Violations are reported as INVALID_INPUT with every field listed.
func Validate(schema map[string]interface{}, document interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	return validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(document))
}

// ValidateJSON is Validate for a raw JSON document such as job variables.
func ValidateJSON(schema map[string]interface{}, document string) error {
	if len(schema) == 0 {
		return nil
	}
	return validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(document))
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("validation error: %v", err))
	}
	if result.Valid() {
		return nil
	}

	errs := Errors(result)
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	stdErr := apperrors.NewInvalidInputError(strings.Join(msgs, "; "))
	stdErr.WithMetadata("violations", errs)
	return stdErr
}

// Errors flattens the violations of a result.
func Errors(result *gojsonschema.Result) []ValidationError {
	out := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		out = append(out, ValidationError{Field: desc.Field(), Message: desc.Description()})
	}
	return out
}

// DecodeJob validates raw job variables against schema and decodes them into dst.
func DecodeJob(schema map[string]interface{}, variables string, dst interface{}) error {
	if variables == "" {
		variables = "{}"
	}
	if err := ValidateJSON(schema, variables); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(variables), dst); err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return nil
}
