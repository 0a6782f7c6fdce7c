package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// DocumentSchema describes a rules document. Pattern validity is not checked
// here; bad patterns surface when a key is resolved.
const DocumentSchema = `{
  "type": "object",
  "required": ["rules"],
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["pattern", "destination"],
        "properties": {
          "pattern": {"type": "string", "minLength": 1},
          "destination": {"type": "string", "minLength": 1},
          "decode_config": {"type": ["object", "null"]}
        }
      }
    }
  }
}`

// Document is the on-disk and over-the-wire rule set.
type Document struct {
	Rules []entity.Rule `json:"rules" yaml:"rules"`
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("rules.json", bytes.NewReader([]byte(DocumentSchema))); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile("rules.json")
	})
	return compiled, compileErr
}

// ParseDocument decodes a YAML or JSON rules document and validates its shape.
func ParseDocument(data []byte) ([]entity.Rule, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	// normalize to plain JSON values for the validator
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize rules: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("normalize rules: %w", err)
	}

	schema, err := documentSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("rules document does not match schema: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return doc.Rules, nil
}

// Check reports problems that only show up at resolution time: patterns that
// do not compile and destinations that are not plain identifiers.
func Check(rules []entity.Rule) error {
	v := common.NewValidator()
	for i, r := range rules {
		v.Field(fmt.Sprintf("rules[%d].pattern", i), r.Pattern, common.Required, common.Regexp)
		v.Field(fmt.Sprintf("rules[%d].destination", i), r.Destination, common.Identifier)
	}
	if v.HasErrors() {
		return common.NewAppError("INVALID_RULES", v.ErrorMessage(), common.ErrValidation)
	}
	return nil
}
