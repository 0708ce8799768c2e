package corpus

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// artifactSchema constrains corpus artifacts before they are decoded:
// distribution parameters must be numbers, stddev and corpus sizes
// non-negative, and the top-level shape fixed.
const artifactSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "programs", "metrics"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "fitted_at": {"type": "string"},
    "programs": {"type": "integer", "minimum": 1},
    "metrics": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["mean", "stddev", "n"],
        "properties": {
          "mean": {"type": "number"},
          "stddev": {"type": "number", "minimum": 0},
          "n": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(artifactSchema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("corpus.schema.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("corpus.schema.json")
})

// validate checks a JSON corpus document against the artifact schema.
func validate(r io.Reader) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compiling corpus schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(r)
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}
