package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/fundwatch/internal/app"
	"github.com/newthinker/fundwatch/internal/config"
	"github.com/newthinker/fundwatch/internal/logger"
	"github.com/newthinker/fundwatch/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	runPolicy  string
	runWorkers int
	runPace    time.Duration
)

var runCmd = &cobra.Command{
	Use:       "run {funds|global}",
	Short:     "Resolve a watch list and publish its snapshot",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{config.RunFunds, config.RunGlobal},
	RunE:      runSnapshot,
}

func init() {
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "dispatch policy override: parallel or sequential")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "parallel width override")
	runCmd.Flags().DurationVar(&runPace, "pace", 0, "sequential pause override, e.g. 300ms")
	rootCmd.AddCommand(runCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	kind := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.NewWithLevel(debug || cfg.Log.Development, logLevel(cfg))
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	a, err := app.Build(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	policy, err := resolvePolicy(cmd, a, kind)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.Run(ctx, kind, policy)
	if err != nil {
		return fmt.Errorf("%s run: %w", kind, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d assets resolved, written to %s\n",
		kind, report.Success, report.Total, report.Output)
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func logLevel(cfg *config.Config) string {
	if debug {
		return "debug"
	}
	return cfg.Log.Level
}

// resolvePolicy applies the command line overrides on top of the configured
// run settings of kind. Settings not overridden keep their configured value,
// whichever mode ends up selected.
func resolvePolicy(cmd *cobra.Command, a *app.App, kind string) (orchestrator.Policy, error) {
	run, err := a.RunConfig(kind)
	if err != nil {
		return orchestrator.Policy{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("policy") {
		run.Policy = runPolicy
	}
	if flags.Changed("workers") {
		run.Workers = runWorkers
	}
	if flags.Changed("pace") {
		run.Pace = runPace
	}
	return orchestrator.ParsePolicy(run.Policy, run.Workers, run.Pace)
}
