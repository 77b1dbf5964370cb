// Package schemas validates JSON produced by external collaborators before it
// reaches the stores.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed profile.schema.json
var profileSchema string

// ValidationError lists every schema violation in a document.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single violation at a field path.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError means the schema itself, or the document, could not be loaded.
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Schema is a compiled JSON Schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schema content once for repeated validation.
func Compile(name, content string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Message: "invalid schema", Cause: err}
	}
	return &Schema{name: name, schema: s}, nil
}

// Validate checks a JSON document. It returns *ValidationError when the
// document is well-formed but violates the schema.
func (s *Schema) Validate(document []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &SchemaLoadError{Name: s.name, Message: "document could not be read", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

// ValidateJSONString validates a JSON string against schema content given as a string.
func ValidateJSONString(schemaContent, jsonContent string) error {
	s, err := Compile("(string schema)", schemaContent)
	if err != nil {
		return err
	}
	return s.Validate([]byte(jsonContent))
}

var (
	profileOnce     sync.Once
	profileCompiled *Schema
	profileErr      error
)

// Profile returns the compiled schema for parsed resume profiles.
func Profile() (*Schema, error) {
	profileOnce.Do(func() {
		profileCompiled, profileErr = Compile("profile", profileSchema)
	})
	return profileCompiled, profileErr
}

// ValidateProfile validates a parsed resume profile document.
func ValidateProfile(document []byte) error {
	s, err := Profile()
	if err != nil {
		return err
	}
	return s.Validate(document)
}
