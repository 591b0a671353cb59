package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/pitchprep/internal/db"
	"github.com/jonathan/pitchprep/internal/observability"
	"github.com/jonathan/pitchprep/internal/research"
	"github.com/jonathan/pitchprep/internal/scheduler"
	"github.com/jonathan/pitchprep/internal/types"
)

var (
	researchFormat string
	researchForce  bool
)

var researchCmd = &cobra.Command{
	Use:   "research <company>...",
	Short: "Show the employer context for one or more companies",
	Long:  "Serve employer contexts from the cache, researching the ones that are missing or stale. Postgres backs the cache when database.url is set, memory otherwise.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResearch,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh stale employer contexts for every roster company once",
	RunE:  runRefresh,
}

func init() {
	researchCmd.Flags().StringVar(&researchFormat, "format", "text", "Output format: text or json")
	researchCmd.Flags().BoolVar(&researchForce, "force", false, "Research even when a fresh context is cached")
	rootCmd.AddCommand(researchCmd, refreshCmd)
}

type researchOutput struct {
	Context   types.EmployerContext `json:"context"`
	FromCache bool                  `json:"fromCache"`
	Warning   string                `json:"warning,omitempty"`
}

func runResearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	var database *db.DB
	if a.cfg.Database.URL != "" {
		if database, err = a.database(ctx); err != nil {
			return err
		}
	}
	client, err := a.llmClient(ctx)
	if err != nil {
		return err
	}
	st, err := a.contextStore(ctx, database)
	if err != nil {
		return err
	}
	researcher, err := a.researcher(ctx, st, client)
	if err != nil {
		return err
	}

	names := uniqueNames(args)
	lookups := make(map[string]research.Lookup, len(names))
	if researchForce {
		for _, name := range names {
			c, err := researcher.Refresh(ctx, name)
			l := research.Lookup{Context: c}
			var degraded *research.DegradedError
			if errors.As(err, &degraded) {
				l.Degraded = degraded
			}
			lookups[name] = l
		}
	} else {
		lookups = researcher.GetContexts(ctx, names, a.cfg.Scheduler.Concurrency)
	}

	if researchFormat == "json" {
		out := make(map[string]researchOutput, len(lookups))
		for name, l := range lookups {
			o := researchOutput{Context: l.Context, FromCache: l.FromCache}
			if l.Degraded != nil {
				o.Warning = l.Degraded.Error()
			}
			out[name] = o
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	for _, name := range names {
		l := lookups[name]
		printer.PrintContext(l.Context, l.FromCache)
		if l.Degraded != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", l.Degraded)
		}
	}
	return nil
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext(cmd)
	defer stop()
	svc, err := a.services(ctx)
	if err != nil {
		return err
	}

	refresher := scheduler.New(svc.db, svc.researcher, a.cfg.Scheduler.RefreshInterval, a.cfg.Scheduler.Concurrency, a.log)
	summary, err := refresher.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "checked %d, stale %d, refreshed %d, failed %d\n",
		summary.Checked, summary.Stale, summary.Refreshed, summary.Failed)
	return nil
}

// uniqueNames trims names and drops blanks and repeats, keeping order.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
