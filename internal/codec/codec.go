// Package codec provides a compact binary encoding of a parsed
// ast.SyntaxTree, as a denser alternative to internal/schema's
// field-named JSON form for the same serialization contract (spec.md
// §6). Unlike the JSON DTO, which flattens compound commands to their
// reprinted text (see internal/schema's note on why), this encodes the
// real ast.SyntaxTree directly — full round-trip fidelity, at the cost
// of a format only this module's own Decode can read back.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/posh-lang/posh/core/ast"
)

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	// Canonical mode gives deterministic output across runs, the same
	// property the teacher's own CBOR usage (core/planfmt.CanonicalPlan)
	// relies on for stable hashing — relevant here because
	// Word.Expansions order is itself semantically significant (the
	// expansion-ordering invariant), and canonical mode preserves array
	// order natively while still forcing deterministic map encoding for
	// any map-shaped value reachable from the tree.
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: building canonical CBOR encoder: %v", err))
	}
	return m
}

// Encode produces the compact binary encoding of tree.
func Encode(tree *ast.SyntaxTree) ([]byte, error) {
	data, err := encMode.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return data, nil
}

// Decode reverses Encode.
func Decode(data []byte) (*ast.SyntaxTree, error) {
	var tree ast.SyntaxTree
	if err := cbor.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	return &tree, nil
}
