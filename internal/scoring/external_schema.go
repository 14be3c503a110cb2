package scoring

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/external_analysis.json
var externalSchemaJSON string

var (
	externalSchemaOnce sync.Once
	externalSchema     *gojsonschema.Schema
	externalSchemaErr  error
)

// FieldError is a single schema violation in a provider payload.
type FieldError struct {
	Field   string
	Message string
}

type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "payload does not match schema: " + strings.Join(parts, "; ")
}

func loadExternalSchema() (*gojsonschema.Schema, error) {
	externalSchemaOnce.Do(func() {
		externalSchema, externalSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(externalSchemaJSON))
	})
	return externalSchema, externalSchemaErr
}

func validateExternalPayload(raw []byte) error {
	schema, err := loadExternalSchema()
	if err != nil {
		return fmt.Errorf("load external schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		// The document itself could not be parsed.
		return fmt.Errorf("parse payload: %w", err)
	}
	if result.Valid() {
		return nil
	}
	se := &SchemaError{}
	for _, re := range result.Errors() {
		se.Errors = append(se.Errors, FieldError{Field: re.Field(), Message: re.Description()})
	}
	return se
}
