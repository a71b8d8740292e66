package llm

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchemas holds compiled schemas keyed by name and definition
// digest, so two schemas sharing a name never see each other's rules.
var compiledSchemas sync.Map // map[schemaKey]*jsonschema.Schema

type schemaKey struct {
	name   string
	digest [sha256.Size]byte
}

// CheckSchema reports whether s compiles. Services call it at startup so a
// broken schema fails fast instead of on the first request.
func CheckSchema(s *Schema) error {
	_, err := compileSchema(s)
	return err
}

// validateResponse checks raw against s. A nil schema accepts anything.
// Failures are *ErrInvalidResponse so the retry decorator can try once more.
func validateResponse(s *Schema, raw json.RawMessage) error {
	if s == nil {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compileSchema(s)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := compiled.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("reply does not match schema %q: %w", s.Name, err)}
	}
	return nil
}

func compileSchema(s *Schema) (*jsonschema.Schema, error) {
	def, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", s.Name, err)
	}
	key := schemaKey{name: s.Name, digest: sha256.Sum256(def)}
	if cached, ok := compiledSchemas.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", s.Name, err)
	}
	url := "mem://schemas/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", s.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}

	actual, _ := compiledSchemas.LoadOrStore(key, compiled)
	return actual.(*jsonschema.Schema), nil
}
