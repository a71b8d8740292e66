package bank

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "schema://question-bank.json"

const bankSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "question", "answers"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "question": {"type": "string", "minLength": 1},
      "category": {"type": "string"},
      "answers": {
        "type": "array",
        "minItems": 2,
        "items": {
          "type": "object",
          "required": ["text", "correct"],
          "properties": {
            "text": {"type": "string"},
            "correct": {"type": "boolean"}
          }
        }
      }
    }
  }
}`

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	def, err := jsonschema.UnmarshalJSON(strings.NewReader(bankSchema))
	if err != nil {
		return nil, fmt.Errorf("parse bank schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(schemaURL)
})

func validateDocument(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := compiled()
	if err != nil {
		return fmt.Errorf("compile bank schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
