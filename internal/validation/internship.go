package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pminternship/alloc-admin/internal/models"
)

// internshipSchema mirrors the constraints the service enforces on POST /internships.
const internshipSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["org_name", "title"],
  "properties": {
    "org_name":        {"type": "string", "minLength": 1, "maxLength": 200},
    "title":           {"type": "string", "minLength": 1, "maxLength": 200},
    "location":        {"type": "string", "maxLength": 200},
    "pincode":         {"type": "string", "minLength": 3, "maxLength": 6},
    "capacity":        {"type": "integer", "minimum": 1},
    "min_cgpa":        {"type": "number", "minimum": 0, "maximum": 10},
    "req_skills_text": {"type": "string"}
  }
}`

var internshipSchemaLoader = gojsonschema.NewStringLoader(internshipSchema)

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	if e.Field == "" || e.Field == "(root)" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// SchemaError collects every violation of one document.
type SchemaError struct {
	Fields []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}

// ValidateInternship checks a create request against the internship schema.
// Text fields are expected to be trimmed already (see InternshipRequest.Normalized).
func ValidateInternship(req models.InternshipRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode internship: %w", err)
	}
	return validateDocument(gojsonschema.NewBytesLoader(data))
}

// ParseInternships decodes a JSON file holding one internship object or a list
// of them, validating each against the schema.
func ParseInternships(data []byte) ([]models.InternshipRequest, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("internship file is empty")
	}

	var raws []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return nil, fmt.Errorf("invalid internship list: %w", err)
		}
	} else {
		raws = []json.RawMessage{json.RawMessage(trimmed)}
	}

	out := make([]models.InternshipRequest, 0, len(raws))
	for i, raw := range raws {
		if err := validateDocument(gojsonschema.NewBytesLoader(raw)); err != nil {
			return nil, fmt.Errorf("internship %d: %w", i+1, err)
		}
		req := models.NewInternshipRequest()
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("internship %d: %w", i+1, err)
		}
		out = append(out, req.Normalized())
	}
	return out, nil
}

func validateDocument(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(internshipSchemaLoader, doc)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	se := &SchemaError{}
	for _, desc := range result.Errors() {
		se.Fields = append(se.Fields, FieldError{Field: desc.Field(), Message: desc.Description()})
	}
	return se
}
