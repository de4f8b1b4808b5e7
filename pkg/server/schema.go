package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema describes the body of POST /proxy/execute.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["method", "uri"],
  "properties": {
    "method": {"type": "string", "minLength": 1},
    "uri": {"type": "string", "minLength": 1},
    "headers": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    },
    "body": {"type": "string"},
    "bodyEncoding": {"type": "string", "enum": ["base64"]}
  }
}`

var envelopeValidator = mustSchema(envelopeSchema)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

// validateEnvelope checks raw against the envelope schema.
func validateEnvelope(raw []byte) error {
	result, err := envelopeValidator.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid envelope: %s", strings.Join(msgs, "; "))
}
