package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posh-lang/posh/internal/codec"
	"github.com/posh-lang/posh/runtime/parser"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []string{
		"echo hello world\n",
		"if true; then echo yes; else echo no; fi\n",
		"for i in a b c; do echo $i; done\n",
		"f() { echo body; }\n",
		"echo 'single' \"double $X\" ~/path\n",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			tree, err := parser.Parse(src, false)
			require.NoError(t, err)

			data, err := codec.Encode(tree)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			got, err := codec.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tree.String(), got.String())
			assert.Equal(t, tree, got)
		})
	}
}

func TestEncodeIsCanonicalAndDeterministic(t *testing.T) {
	tree, err := parser.Parse("echo a b c\n", false)
	require.NoError(t, err)

	a, err := codec.Encode(tree)
	require.NoError(t, err)
	b, err := codec.Encode(tree)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := codec.Decode([]byte{0xff, 0x00, 0x01})
	assert.Error(t, err)
}
