package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/sieve/internal/core/config"
	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
)

type queryOptions struct {
	kind    string
	input   string
	format  string
	limit   int
	explain bool
}

func newQueryCmd(a *app) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <expression>",
		Short: "List records matching a filter expression",
		Example: `  sieve query "status = open AND due < today"
  sieve query --kind json --input orders.json "items.*.sku CONTAINS 'A1'"
  sieve query --explain "(tags CONTAINS work OR area = home) AND NOT status = completed"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", "", "record kind: todos, projects, areas or json (default from config)")
	cmd.Flags().StringVar(&opts.input, "input", "", "read records from a JSON array file instead of the database (- for stdin)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text, json)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "print at most this many matches (0 for all)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "print the parsed expression and its cost without running it")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, opts *queryOptions, query string) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("invalid --format %q (expected text or json)", opts.format)
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	compiled, err := a.engine(cfg).Compile(query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.explain {
		if opts.format == "json" {
			return writeJSON(out, map[string]any{"expression": compiled.Expr.String(), "cost": compiled.Cost})
		}
		fmt.Fprintf(out, "%s\ncost: %d\n", compiled.Expr, compiled.Cost)
		return nil
	}

	kindName := opts.kind
	if kindName == "" {
		kindName = cfg.Query.DefaultKind
	}
	kind, err := tasks.ParseKind(kindName)
	if err != nil {
		return err
	}

	items, err := a.loadItems(cmd, cfg, kind, opts.input)
	if err != nil {
		return err
	}

	matched := filter.FilterItems(items, compiled.Expr)
	a.logger.Info("query finished", "kind", kind, "scanned", len(items), "matched", len(matched), "cost", compiled.Cost)

	shown := matched
	if opts.limit > 0 && len(shown) > opts.limit {
		shown = shown[:opts.limit]
	}

	if opts.format == "json" {
		return writeJSON(out, map[string]any{
			"expression": compiled.Expr.String(),
			"cost":       compiled.Cost,
			"matched":    len(matched),
			"items":      shown,
		})
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, item := range shown {
		fmt.Fprintf(tw, "%s\t%s\n", item.ItemID(), item.ItemName())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d %s matched\n", len(matched), len(items), kind)
	return nil
}

// loadItems reads kind from input when given, otherwise from the store.
func (a *app) loadItems(cmd *cobra.Command, cfg *config.Config, kind tasks.Kind, input string) ([]filter.Filterable, error) {
	if input == "" {
		if kind == tasks.KindJSON {
			return nil, fmt.Errorf("--kind json requires --input")
		}
		store, err := a.openStore(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Items(cmd.Context(), kind)
	}

	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	return tasks.Load(kind, r)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
