package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/seogov/internal/adapter/postgres"
	"github.com/Strob0t/seogov/internal/config"
	"github.com/Strob0t/seogov/internal/domain/action"
	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/run"
	"github.com/Strob0t/seogov/internal/logger"
)

// runCommand dispatches CLI subcommands.
func runCommand(name string, args []string) error {
	switch name {
	case "serve":
		return serve(args)
	case "cycle":
		return runCycle(args)
	case "budget":
		return runBudget(args)
	case "actions":
		return runActions(args)
	case "migrate":
		return runMigrate(args)
	case "help", "--help", "-h":
		printHelp(os.Stderr)
		return nil
	default:
		printHelp(os.Stderr)
		return fmt.Errorf("unknown command: %s", name)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: seogov [command] [options]

Commands:
  serve            Run the HTTP API and scheduler (default)
  cycle            Run one governance cycle and print the report
  budget           Show the budget status for the current month
  actions          List pending actions
  actions approve  Approve and execute a pending action
  migrate          Apply, roll back or inspect database migrations
  help             Show this help message

Common options:
  --config PATH    YAML configuration file (default seogov.yaml)
  --json           Print JSON even on a terminal

Examples:
  seogov cycle --config prod.yaml
  seogov actions approve 5b1c... --by ana --response "Thanks, we fixed it."
  seogov migrate down 1
`)
}

// cliEnv is the state shared by the one-shot commands.
type cliEnv struct {
	cfg  *config.Config
	json bool
}

// commandFlags registers the options every command accepts.
func commandFlags(name string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "YAML configuration file")
	asJSON := fs.Bool("json", false, "print JSON")
	return fs, path, asJSON
}

func loadEnv(path string, asJSON bool) (*cliEnv, error) {
	flags := config.CLIFlags{}
	if path != "" {
		flags.ConfigPath = &path
	}
	cfg, _, err := config.LoadWithCLI(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cliEnv{
		cfg:  cfg,
		json: asJSON || !term.IsTerminal(int(os.Stdout.Fd())), //nolint:gosec // fd fits in int
	}, nil
}

// withApp builds the engine with logs on stderr, runs fn, and tears down.
func (e *cliEnv) withApp(fn func(ctx context.Context, a *app) error) error {
	logCfg := e.cfg.Logging
	if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	log, closer := logger.NewWithWriter(logCfg, os.Stderr)
	defer closer.Close()

	ctx := context.Background()
	a, err := newApp(ctx, e.cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func (e *cliEnv) printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCycle(args []string) error {
	fs, path, asJSON := commandFlags("cycle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := loadEnv(*path, *asJSON)
	if err != nil {
		return err
	}

	return env.withApp(func(ctx context.Context, a *app) error {
		rep, err := a.scheduler.Trigger(ctx)
		if err != nil {
			return err
		}
		if env.json {
			return env.printJSON(rep)
		}
		return printReport(os.Stdout, rep)
	})
}

func printReport(out io.Writer, rep *run.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "CYCLE\t%s\t%s\n", rep.ID, rep.Duration().Round(time.Millisecond))

	sentinel := "ok"
	if ev := rep.Sentinel.Evaluation; ev != nil {
		sentinel = string(ev.Status)
	}
	_, _ = fmt.Fprintf(w, "SENTINEL\t%s\t%s\n", sentinel, rep.Sentinel.Error)
	_, _ = fmt.Fprintf(w, "REVIEWS\t%d processed, %d escalated\t%s\n",
		rep.Reviews.Processed, rep.Reviews.Escalated, rep.Reviews.Error)
	if st := rep.Budget.Status; st != nil {
		_, _ = fmt.Fprintf(w, "BUDGET\t%s %.2f/%.2f\t%s\n", st.State, st.Spent, st.Budget, rep.Budget.Error)
	} else {
		_, _ = fmt.Fprintf(w, "BUDGET\t-\t%s\n", rep.Budget.Error)
	}
	_, _ = fmt.Fprintf(w, "PENDING\t%d\t\n", len(rep.PendingActions))
	return w.Flush()
}

func runBudget(args []string) error {
	fs, path, asJSON := commandFlags("budget")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := loadEnv(*path, *asJSON)
	if err != nil {
		return err
	}

	return env.withApp(func(_ context.Context, a *app) error {
		now := time.Now()
		st := a.ledger.Status(now)
		opts := a.ledger.Optimizations(now)
		if env.json {
			return env.printJSON(struct {
				budget.Status
				Optimizations map[string]float64 `json:"optimizations,omitempty"`
			}{st, opts})
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "MONTH\tBUDGET\tSPENT\tREMAINING\tPROJECTED\tSTATE")
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			st.MonthKey, st.Budget, st.Spent, st.Remaining, st.ProjectedSpend, st.State)
		if len(opts) > 0 {
			_, _ = fmt.Fprintln(w, "\nACTIVITY\tSUGGESTED UNIT PRICE")
			for _, key := range a.ledger.Prices().Keys() {
				if p, ok := opts[key]; ok {
					_, _ = fmt.Fprintf(w, "%s\t%.4f\n", key, p)
				}
			}
		}
		return w.Flush()
	})
}

func runActions(args []string) error {
	if len(args) > 0 && args[0] == "approve" {
		return runApprove(args[1:])
	}

	fs, path, asJSON := commandFlags("actions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := loadEnv(*path, *asJSON)
	if err != nil {
		return err
	}

	return env.withApp(func(ctx context.Context, a *app) error {
		pending, err := a.governance.ListPending(ctx)
		if err != nil {
			return fmt.Errorf("list pending: %w", err)
		}
		if env.json {
			if pending == nil {
				pending = []action.Pending{}
			}
			return env.printJSON(pending)
		}
		if len(pending) == 0 {
			fmt.Println("No pending actions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tKIND\tTARGET\tCREATED\tEXPIRES")
		for i := range pending {
			p := &pending[i]
			expires := "never"
			if !p.ExpiresAt.IsZero() {
				expires = p.ExpiresAt.Format(time.RFC3339)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Kind(), p.Target(), p.CreatedAt.Format(time.RFC3339), expires)
		}
		return w.Flush()
	})
}

func runApprove(args []string) error {
	fs, path, asJSON := commandFlags("actions approve")
	by := fs.String("by", os.Getenv("USER"), "name of the approver")
	response := fs.String("response", "", "replacement reply text for review responses")
	words := fs.Int("words", 0, "edit size override for content updates")
	note := fs.String("note", "", "free-form note")

	// The action ID may come before or after the flags.
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if id == "" {
		return fmt.Errorf("usage: seogov actions approve <id> [options]")
	}

	env, err := loadEnv(*path, *asJSON)
	if err != nil {
		return err
	}
	return env.withApp(func(ctx context.Context, a *app) error {
		res, err := a.governance.Approve(ctx, id, action.Approval{
			ApprovedBy: *by,
			Response:   *response,
			Words:      *words,
			Note:       *note,
		})
		if err != nil {
			return err
		}
		if env.json {
			return env.printJSON(res)
		}
		fmt.Fprintf(os.Stdout, "%s %s: %s %s%s\n", res.Kind, res.ActionID, res.Status, res.Detail, res.Error)
		if res.Status == action.ResultFailed {
			return fmt.Errorf("action %s failed", id)
		}
		return nil
	})
}

func runMigrate(args []string) error {
	sub := "up"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	fs, path, _ := commandFlags("migrate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := loadEnv(*path, false)
	if err != nil {
		return err
	}
	dsn := env.cfg.Postgres.DSN
	ctx := context.Background()

	switch sub {
	case "up":
		if err := postgres.RunMigrations(ctx, dsn); err != nil {
			return err
		}
	case "down":
		steps := 1
		if fs.NArg() > 0 {
			n, err := strconv.Atoi(fs.Arg(0))
			if err != nil || n < 1 {
				return fmt.Errorf("migrate down: invalid step count %q", fs.Arg(0))
			}
			steps = n
		}
		if err := postgres.RollbackMigrations(ctx, dsn, steps); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown migrate command: %s", sub)
	}

	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Schema version: %d\n", v)
	return nil
}
