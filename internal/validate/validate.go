// Package validate checks inbound create payloads against JSON schemas and
// turns them into store-ready records.
package validate

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/unicode/norm"
)

const (
	rootContext  = "(root)"
	msgNotObject = "must be a valid JSON object"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	resourceSchema      = mustSchema("resource.json")
	resourcePatchSchema = mustSchema("resource_patch.json")
	quizSchema          = mustSchema("quiz.json")
	progressSchema      = mustSchema("progress.json")
)

// FieldError names one field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a payload violates one or more constraints. It lists
// every violation, not just the first.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid data: " + strings.Join(parts, "; ")
}

func (e *Error) add(field, message string) {
	for _, f := range e.Fields {
		if f.Field == field && f.Message == message {
			return
		}
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *Error) has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *Error) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func mustSchema(name string) *gojsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("validate: reading schema %s: %v", name, err))
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("validate: compiling schema %s: %v", name, err))
	}
	return s
}

// check validates raw against schema and decodes as much of it as it can into
// dst, so callers can run their own checks even when the schema fails. It
// returns false when raw is not a JSON object and nothing further applies.
func check(schema *gojsonschema.Schema, raw []byte, dst any) (*Error, bool) {
	verr := &Error{}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		verr.add("body", msgNotObject)
		return verr, false
	}
	for _, re := range result.Errors() {
		verr.add(fieldName(re), re.Description())
	}
	if verr.has("body") {
		return verr, false
	}

	// A type mismatch skips only the offending field.
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			verr.add("body", msgNotObject)
			return verr, false
		}
		if len(verr.Fields) == 0 {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			verr.add(field, "must be a whole number within range")
		}
	}
	return verr, true
}

// fieldName renders a schema error location as a dotted path. Required-field
// errors point at the parent object, so the missing property is appended.
func fieldName(re gojsonschema.ResultError) string {
	field := strings.TrimPrefix(re.Context().String(), rootContext)
	field = strings.TrimPrefix(field, ".")
	if prop, ok := re.Details()["property"].(string); ok && re.Type() == "required" {
		if field == "" {
			return prop
		}
		return field + "." + prop
	}
	if field == "" {
		return "body"
	}
	return field
}

// clean trims and NFC-normalizes a string.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := clean(*s)
	return &c
}

// requireText flags a blank value unless the schema already flagged the field.
func requireText(verr *Error, field, value string) {
	if value == "" && !verr.has(field) {
		verr.add(field, "must not be blank")
	}
}
