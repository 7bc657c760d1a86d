package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	coreapp "pyuml/internal/core/app"
	"pyuml/internal/core/config"
	"pyuml/internal/data/history"
	"pyuml/internal/engine/model"
)

func newGenerateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate diagrams from Python sources",
	}
	for _, kind := range model.Kinds() {
		cmd.AddCommand(newGenerateKindCommand(opts, kind.String()))
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Generate every kind listed in the config plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.close()
			if len(rt.cfg.Plan) == 0 {
				return fmt.Errorf("no [plan] entries in %s", rt.cfgPath)
			}
			results, err := rt.service.GenerateAllDiagrams(cmd.Context(), rt.plan(), rt.paths.OutputDir, rt.overrides)
			printResults(opts.stdout, results)
			return err
		},
	})
	return cmd
}

func newGenerateKindCommand(opts *options, kind string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   kind + " [sources...]",
		Short: fmt.Sprintf("Generate %s diagrams", kind),
		Long: fmt.Sprintf(`Generate one %s diagram per source file or directory. Without
sources the plan.%s list from the config is used.`, kind, kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.close()

			sources := args
			if len(sources) == 0 {
				sources = rt.plan()[kind]
			}
			if len(sources) == 0 {
				return fmt.Errorf("no sources given and no plan.%s entries configured", kind)
			}

			if file != "" {
				if len(sources) != 1 {
					return fmt.Errorf("--file takes exactly one source, got %d", len(sources))
				}
				if err := rt.service.GenerateDiagram(cmd.Context(), kind, sources[0], file, rt.overrides); err != nil {
					return err
				}
				fmt.Fprintln(opts.stdout, successStyle.Render("wrote "+file))
				return nil
			}

			res, err := rt.service.GenerateDiagrams(cmd.Context(), kind, sources, rt.paths.OutputDir, rt.overrides)
			if err != nil {
				return err
			}
			printBatch(opts.stdout, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "write a single diagram to this path")
	return cmd
}

func newIndexCommand(opts *options) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Write an index of the diagrams of one kind in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.close()

			f := rt.service.Factory()
			gen, err := f.CreateGenerator(kind, rt.overrides.Generator)
			if err != nil {
				return err
			}
			dir := args[0]
			paths, err := f.Deps().FS.FindFiles(dir, "*"+rt.cfg.Output.Extension)
			if err != nil {
				return err
			}
			index, err := gen.GenerateIndex(cmd.Context(), dir, paths)
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, index)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", model.KindClass.String(), "diagram kind to index")
	return cmd
}

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Generate the config plan, then regenerate on source changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.close()
			if len(rt.cfg.Plan) == 0 {
				return fmt.Errorf("no [plan] entries in %s", rt.cfgPath)
			}

			watchOpts := coreapp.WatchOptions{
				Overrides: rt.overrides,
				OnBatch: func(results map[string]coreapp.BatchResult, err error) {
					printResults(opts.stdout, results)
					if err != nil {
						fmt.Fprintln(opts.stderr, failureStyle.Render(err.Error()))
					}
				},
			}
			if _, err := os.Stat(rt.cfgPath); err == nil {
				watchOpts.ConfigPath = rt.cfgPath
			}
			return rt.service.WatchAndRegenerate(ctx, rt.plan(), rt.paths.OutputDir, watchOpts)
		},
	}
}

func newHistoryCommand(opts *options) *cobra.Command {
	var (
		kind   string
		status string
		since  time.Duration
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.history == nil {
				return fmt.Errorf("history is disabled; set history.enabled = true in %s", rt.cfgPath)
			}

			filter := history.Filter{
				Kind:   kind,
				Status: history.Status(status),
				Limit:  limit,
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			runs, err := rt.history.RecentRuns(cmd.Context(), filter)
			if err != nil {
				return err
			}
			summary, err := rt.history.Summary(cmd.Context())
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Fprintln(opts.stdout, statusStyle.Render("No generation runs recorded."))
				return nil
			}
			fmt.Fprintln(opts.stdout, titleStyle.Render("Recent runs"))
			fmt.Fprintln(opts.stdout, renderRuns(runs))
			fmt.Fprintln(opts.stdout, titleStyle.Render("By kind"))
			fmt.Fprintln(opts.stdout, renderSummary(summary))
			fmt.Fprintln(opts.stdout, statusStyle.Render("history: "+rt.history.Path()))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only runs of this kind")
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status (success|failed)")
	cmd.Flags().DurationVar(&since, "since", 0, "only runs newer than this age, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	return cmd
}

func newInitCommand(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter pyuml.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := opts.resolveConfigPath(cwd)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			cfg.Plan = map[string][]string{
				model.KindClass.String(): {"."},
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, successStyle.Render("wrote "+path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

// plan resolves relative plan sources against the project root.
func (rt *runtime) plan() map[string][]string {
	out := make(map[string][]string, len(rt.cfg.Plan))
	for kind, sources := range rt.cfg.Plan {
		resolved := make([]string, 0, len(sources))
		for _, src := range sources {
			if strings.TrimSpace(src) == "" {
				continue
			}
			resolved = append(resolved, config.ResolveRelative(rt.paths.ProjectRoot, src))
		}
		out[kind] = resolved
	}
	return out
}
