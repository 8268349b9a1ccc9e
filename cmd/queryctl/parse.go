package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "parse <query...>",
		Short: "Parse a query and print the result as JSON",
		Example: `  queryctl parse "casque sony moins de 100 euros"
  queryctl parse --compact best rated laptops`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.parser()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			pq, err := p.Parse(query)
			if err != nil {
				return fmt.Errorf("parse %q: %w", query, err)
			}
			opts.logger(cmd).Debug("query parsed",
				slog.String("intent", string(pq.Intent)),
				slog.Float64("confidence", pq.Confidence),
			)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(pq)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on a single line")
	return cmd
}
