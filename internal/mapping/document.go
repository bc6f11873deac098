package mapping

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed pipeline.schema.json
var pipelineSchema string

// DocumentError lists the schema violations of a persisted pipeline document.
type DocumentError struct {
	Errors []FieldError
}

// FieldError is a single violation at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (e *DocumentError) Error() string {
	var sb strings.Builder

	sb.WriteString("invalid pipeline document:")

	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, fe.Field, fe.Message)
	}

	return sb.String()
}

// SchemaLoadError reports that the document or schema could not be loaded.
type SchemaLoadError struct {
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateDocument checks a JSON pipeline document against the embedded schema.
func ValidateDocument(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(pipelineSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{Message: "pipeline document could not be validated", Cause: err}
	}

	if result.Valid() {
		return nil
	}

	docErr := &DocumentError{Errors: make([]FieldError, 0, len(result.Errors()))}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}

		docErr.Errors = append(docErr.Errors, FieldError{Field: field, Message: desc.Description()})
	}

	return docErr
}
