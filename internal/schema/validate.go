package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// document is the hand-published JSON Schema describing the Tree shape
// produced by FromSyntaxTree, matching spec.md §6's promise of "a
// stable, field-named serialization" with "field names... exactly those
// listed in §3.2". It is intentionally loose about the recursive
// node-specific fields (Draft2020's "oneOf" over the handful of
// Kind-tagged DTOs would more than double this document's size for
// marginal extra safety) and strict about the top-level contract: every
// serialized tree has "leading"/"commands"/"unparsed", and every command
// has a recognized "kind".
//go:embed syntaxtree.schema.json
var document string

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compile() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		const url = "schema://syntaxtree.json"
		if err := c.AddResource(url, strings.NewReader(document)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}

// Validate checks JSON-encoded data (typically the output of
// json.Marshal(FromSyntaxTree(tree))) against the published schema
// document, compiling it once and reusing the compiled validator on
// every subsequent call.
func Validate(data []byte) error {
	s, err := compile()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return s.Validate(v)
}
