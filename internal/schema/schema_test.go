package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posh-lang/posh/internal/schema"
	"github.com/posh-lang/posh/runtime/parser"
)

func TestFromSyntaxTreeValidatesAgainstSchema(t *testing.T) {
	tests := []string{
		"echo hello world\n",
		"if true; then echo yes; fi\n",
		"echo $HOME ~/bin\n",
		"# just a comment\n",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			tree, err := parser.Parse(src, false)
			require.NoError(t, err)

			data, err := json.Marshal(schema.Adapter{Tree: tree})
			require.NoError(t, err)

			assert.NoError(t, schema.Validate(data))
		})
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	bad := []byte(`{"leading":"","commands":[{"kind":"not_a_real_kind"}],"unparsed":""}`)
	assert.Error(t, schema.Validate(bad))
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	assert.Error(t, schema.Validate([]byte(`{not json`)))
}

func TestFromSyntaxTreeEmptyTree(t *testing.T) {
	tree, err := parser.Parse("", false)
	require.NoError(t, err)

	out := schema.FromSyntaxTree(tree)
	assert.Empty(t, out.Commands)

	data, err := json.Marshal(schema.Adapter{Tree: tree})
	require.NoError(t, err)
	assert.NoError(t, schema.Validate(data))
}
