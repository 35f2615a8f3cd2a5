package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/posh-lang/posh/runtime/lexer"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file|->",
	Short: "Run stage 1 (character tokenizer) and print the flat Token stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		src, err := readInput(args[0])
		if err != nil {
			return ioError(err)
		}
		logger.Debug("tokenize", "stage", "tokenizer", "bytes", len(src))
		for _, tok := range lexer.Tokenize(src) {
			fmt.Fprintf(c.OutOrStdout(), "%-12s %-6s %q\n", tok.Type, tok.Start, tok.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)
}
