package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/sieve/internal/bulk"
	"github.com/solatis/sieve/internal/dates"
)

type bulkOptions struct {
	where  string
	all    bool
	dryRun bool
	format string
}

func newBulkCmd(a *app) *cobra.Command {
	opts := &bulkOptions{}

	actions := make([]string, len(bulk.ActionKinds))
	for i, k := range bulk.ActionKinds {
		actions[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:   "bulk <action> [args...]",
		Short: "Apply an action to every todo matching --where",
		Long:  "Actions: " + strings.Join(actions, ", ") + ".",
		Example: `  sieve bulk complete --where "tags CONTAINS done"
  sieve bulk tag urgent,work --where "due < today AND status = open"
  sieve bulk set-due tomorrow --where "project = 'Q4'" --dry-run`,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBulk(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.where, "where", "", "filter expression selecting todos")
	cmd.Flags().BoolVar(&opts.all, "all", false, "select every todo")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report matches without changing anything")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text, json)")
	cmd.MarkFlagsMutuallyExclusive("where", "all")
	cmd.MarkFlagsOneRequired("where", "all")
	return cmd
}

func (a *app) runBulk(cmd *cobra.Command, opts *bulkOptions, args []string) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("invalid --format %q (expected text or json)", opts.format)
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	action, err := bulk.ParseAction(args[0], args[1:], dates.NewResolver())
	if err != nil {
		return err
	}

	op := bulk.All(action, opts.dryRun)
	if !opts.all {
		op, err = bulk.NewOperation(a.engine(cfg), opts.where, action, opts.dryRun)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	todos, err := store.ListTodos(ctx)
	if err != nil {
		return err
	}

	summary, err := bulk.NewExecutor(store, a.logger).Execute(ctx, todos, op)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		if err := writeJSON(out, summary); err != nil {
			return err
		}
	} else {
		for _, r := range summary.Results {
			switch {
			case !r.Success:
				fmt.Fprintf(out, "FAIL  %s  %s: %s\n", r.ID, r.Name, r.Error)
			case summary.DryRun:
				fmt.Fprintf(out, "would %s  %s\n", r.ID, r.Name)
			case r.Changed:
				fmt.Fprintf(out, "ok    %s  %s\n", r.ID, r.Name)
			default:
				fmt.Fprintf(out, "same  %s  %s\n", r.ID, r.Name)
			}
		}
		suffix := ""
		if summary.DryRun {
			suffix = " (dry run)"
		}
		fmt.Fprintf(out, "%s: %d matched, %d succeeded, %d failed%s\n",
			summary.Action, summary.Matched, summary.Succeeded, summary.Failed, suffix)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d updates failed", summary.Failed, summary.Matched)
	}
	return nil
}
