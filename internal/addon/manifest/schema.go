package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaError reports the first structural violation found in a manifest.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("manifest schema: %s: %s", e.Field, e.Reason)
}

const manifestSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["format_version", "header", "modules"],
  "properties": {
    "format_version": {"type": "integer", "minimum": 1, "maximum": 2},
    "header": {
      "type": "object",
      "required": ["name", "description", "uuid", "version", "min_engine_version"],
      "properties": {
        "name": {"type": "string", "minLength": 1, "maxLength": 256},
        "description": {"type": "string", "maxLength": 512},
        "uuid": {"$ref": "#/$defs/uuid"},
        "version": {"$ref": "#/$defs/version"},
        "min_engine_version": {"$ref": "#/$defs/version"}
      }
    },
    "modules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "uuid", "version"],
        "properties": {
          "type": {"enum": ["data", "resources", "client_data", "script"]},
          "uuid": {"$ref": "#/$defs/uuid"},
          "version": {"$ref": "#/$defs/version"},
          "entry": {"type": "string"}
        }
      }
    },
    "capabilities": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "dependencies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["uuid", "version"],
        "properties": {
          "uuid": {"$ref": "#/$defs/uuid"},
          "version": {"$ref": "#/$defs/version"}
        }
      }
    }
  },
  "$defs": {
    "uuid": {
      "type": "string",
      "pattern": "^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$"
    },
    "version": {
      "type": "array",
      "minItems": 3,
      "maxItems": 3,
      "items": {"type": "integer", "minimum": 0}
    }
  }
}`

var manifestSchema = jsonschema.MustCompileString("manifest.schema.json", manifestSchemaJSON)

// Validate checks a manifest against the pack schema. It is a pure check;
// a nil return means the manifest is safe to write to disk.
func Validate(m Manifest) *SchemaError {
	b, err := json.Marshal(m)
	if err != nil {
		return &SchemaError{Field: "/", Reason: err.Error()}
	}
	// Decode through json.Number so integer fields stay integers.
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return &SchemaError{Field: "/", Reason: err.Error()}
	}
	if err := manifestSchema.Validate(v); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &SchemaError{Field: "/", Reason: err.Error()}
		}
		leaf := leafCause(ve)
		field := leaf.InstanceLocation
		if field == "" {
			field = "/"
		}
		return &SchemaError{Field: field, Reason: leaf.Message}
	}
	return nil
}

// leafCause walks to the first deepest cause so the reported field points at
// the actual violating value, not the document root.
func leafCause(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}
