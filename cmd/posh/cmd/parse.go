package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	perrors "github.com/posh-lang/posh/core/errors"
	"github.com/posh-lang/posh/internal/schema"
	"github.com/posh-lang/posh/internal/subparsecache"
	"github.com/posh-lang/posh/runtime/parser"
)

var (
	parseJSON  bool
	parseTrace bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Run stages 1-3 (tokenizer, semantic tokenizer, parser) and print the SyntaxTree",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		src, err := readInput(args[0])
		if err != nil {
			return ioError(err)
		}

		opts := []parser.Option{parser.WithSubParseCache(subparsecache.New(0))}
		if parseTrace {
			opts = append(opts, parser.WithTelemetry(func(production string) {
				logger.Debug("parse", "production", production)
			}))
		}

		tree, err := parser.Parse(src, false, opts...)
		if err != nil {
			if perrors.IsIncomplete(err) {
				return exitError{code: ExitParseError, err: fmt.Errorf("incomplete: %w", err)}
			}
			return parseError(err)
		}

		if parseJSON {
			data, err := json.MarshalIndent(schema.Adapter{Tree: tree}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal tree: %w", err)
			}
			fmt.Fprintln(c.OutOrStdout(), string(data))
			return nil
		}
		fmt.Fprintln(c.OutOrStdout(), tree.String())
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print the SyntaxTree as the JSON Schema-validated DTO instead of reprinted source")
	parseCmd.Flags().BoolVar(&parseTrace, "trace", false, "log every grammar production entered, via --debug's logger")
	rootCmd.AddCommand(parseCmd)
}
