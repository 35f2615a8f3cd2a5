package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/posh-lang/posh/runtime/lexer"
	"github.com/posh-lang/posh/runtime/semantic"
)

var lexCmd = &cobra.Command{
	Use:   "lex <file|->",
	Short: "Run stages 1-2 (tokenizer + semantic tokenizer) and print SemanticTokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		src, err := readInput(args[0])
		if err != nil {
			return ioError(err)
		}
		toks := lexer.Tokenize(src)
		logger.Debug("lex", "stage", "tokenizer", "tokens", len(toks))
		semToks := semantic.Lex(toks)
		logger.Debug("lex", "stage", "semantic", "tokens", len(semToks))
		for _, tok := range semToks {
			fmt.Fprintf(c.OutOrStdout(), "%-16s %-6s %q\n", tok.Category, tok.Token.Start, tok.Token.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexCmd)
}
