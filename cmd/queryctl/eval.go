package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mouadelabbassi/dashboard/internal/evaluation"
)

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "eval <cases.yaml...>",
		Short: "Run golden case files and report failing expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.parser()
			if err != nil {
				return err
			}
			log := opts.logger(cmd)

			var failed int
			for _, path := range args {
				cases, err := evaluation.LoadFile(path)
				if err != nil {
					return err
				}
				results, err := evaluation.Run(p, cases)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				pass, fail := evaluation.Summary(results)
				log.Info("cases evaluated", slog.String("file", path), slog.Int("passed", pass), slog.Int("failed", fail))

				report(cmd.OutOrStdout(), path, results, verbose)
				failed += fail
			}
			if failed > 0 {
				return fmt.Errorf("%d case(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list passing cases too")
	return cmd
}

func report(w io.Writer, path string, results []evaluation.Result, verbose bool) {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)

	for _, r := range results {
		if r.Passed() {
			if verbose {
				ok.Fprint(w, "PASS")
				fmt.Fprintf(w, " %s\n", r.Case.Name)
			}
			continue
		}
		bad.Fprint(w, "FAIL")
		fmt.Fprintf(w, " %s (%q)\n", r.Case.Name, r.Case.Query)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "    %s\n", f)
		}
	}

	passed, failed := evaluation.Summary(results)
	summary := ok
	if failed > 0 {
		summary = bad
	}
	summary.Fprintf(w, "%s: %d passed, %d failed\n", path, passed, failed)
}
