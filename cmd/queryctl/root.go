package main

import (
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mouadelabbassi/dashboard/internal/nlp"
	"github.com/mouadelabbassi/dashboard/pkg/logger"
)

type rootOptions struct {
	logLevel   string
	noColor    bool
	normalizer float64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "queryctl",
		Short: "Inspect how the smart search parser reads shopping queries",
		Long: `queryctl runs the French/English query parser locally.

Use it to:
- see the intent, filters and sort a query parses to
- check golden case files before shipping parser changes`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().Float64Var(&opts.normalizer, "normalizer", nlp.DefaultConfidenceNormalizer, "confidence normalizer")

	cmd.AddCommand(newParseCmd(opts), newEvalCmd(opts))
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewText(o.logLevel, cmd.ErrOrStderr())
}

func (o *rootOptions) parser() (*nlp.Parser, error) {
	lib, err := nlp.NewLibrary()
	if err != nil {
		return nil, err
	}
	return nlp.NewParser(lib, nlp.WithConfidenceNormalizer(o.normalizer)), nil
}
