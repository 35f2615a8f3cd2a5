package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	perrors "github.com/posh-lang/posh/core/errors"
	"github.com/posh-lang/posh/runtime/expand"
	"github.com/posh-lang/posh/runtime/parser"
)

var expandVars []string

var expandCmd = &cobra.Command{
	Use:   "expand <file|-> [--var NAME=VALUE]...",
	Short: "Run stages 1-4 and print the tree after tilde/parameter expansion and quote removal",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		src, err := readInput(args[0])
		if err != nil {
			return ioError(err)
		}

		vars, err := parseVarFlags(expandVars)
		if err != nil {
			return exitError{code: ExitInvalidArguments, err: err}
		}

		tree, err := parser.Parse(src, false)
		if err != nil {
			if perrors.IsIncomplete(err) {
				return exitError{code: ExitParseError, err: fmt.Errorf("incomplete: %w", err)}
			}
			return parseError(err)
		}

		env := newCLIEnvironment(vars)
		logger.Debug("expand", "stage", "expand", "vars", len(vars))
		tree = expand.SyntaxTree(tree, env)
		fmt.Fprintln(c.OutOrStdout(), tree.String())
		return nil
	},
}

func init() {
	expandCmd.Flags().StringArrayVar(&expandVars, "var", nil, "NAME=VALUE pair available to $NAME during expansion, repeatable")
	rootCmd.AddCommand(expandCmd)
}

func parseVarFlags(raw []string) (map[string]string, error) {
	vars := make(map[string]string, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--var %q: expected NAME=VALUE", kv)
		}
		vars[name] = value
	}
	return vars, nil
}
