package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jg-rp/liquid-extra/pkg/coop"
	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// loadData reads render data from a .json, .yaml or .yml file.
func loadData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}
	var data map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = sonic.Unmarshal(b, &data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &data)
	default:
		return nil, fmt.Errorf("data file %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding data %s: %w", path, err)
	}
	return data, nil
}

var renderCmd = cobra.Command{
	Use:   "render [template ...]",
	Short: "Render template files and print the results in order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		dataPath, _ := cmd.Flags().GetString("data")
		data, err := loadData(dataPath)
		if err != nil {
			return err
		}

		outputs := make([]string, len(args))
		tasks := make([]coop.Task, len(args))
		for i, path := range args {
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading template: %w", err)
			}
			tpl, err := env.Parse(path, string(src))
			if err != nil {
				return err
			}
			tasks[i] = func(ctx context.Context) error {
				out, err := tpl.RenderAsync(ctx, data)
				outputs[i] = out
				return err
			}
		}

		s := coop.New()
		if err := s.Run(cmd.Context(), tasks...); err != nil {
			return err
		}
		logger.L().Debug("rendered templates", zap.Int("count", len(args)), zap.Int64("yields", s.Yields()))
		for _, out := range outputs {
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

type tokenJSON struct {
	Line  int    `json:"line"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

var tokensCmd = cobra.Command{
	Use:   "tokens [expression]",
	Short: "Print the tokens of an expression as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dialect, _ := cmd.Flags().GetString("dialect")
		lexer, ok := expression.Dialects[dialect]
		if !ok {
			return fmt.Errorf("unknown dialect %q", dialect)
		}
		var toks []tokenJSON
		for tok := range lexer.Tokenize(args[0]) {
			toks = append(toks, tokenJSON{Line: tok.Line, Kind: string(tok.Kind), Value: tok.Value})
		}
		b, err := sonic.ConfigStd.MarshalIndent(toks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var parseCmd = cobra.Command{
	Use:   "parse [expression]",
	Short: "Parse an inline if expression and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, err := expression.ParseFilteredIf(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), expr.String())
		return nil
	},
}

func init() {
	renderCmd.Flags().String("data", "", "JSON or YAML file of template variables")
	rootCmd.AddCommand(&renderCmd)

	tokensCmd.Flags().String("dialect", expression.InlineIfLexer.Name(), "Lexer to use: filtered, boolean, boolean-not, inline-if or arguments")
	rootCmd.AddCommand(&tokensCmd)

	rootCmd.AddCommand(&parseCmd)
}
