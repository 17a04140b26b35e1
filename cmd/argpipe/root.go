package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/askiada/go-argpipe/internal/config"
	"github.com/askiada/go-argpipe/internal/demo"
	"github.com/askiada/go-argpipe/internal/logging"
	"github.com/askiada/go-argpipe/pkg/command"
	"github.com/askiada/go-argpipe/pkg/external"
	"github.com/askiada/go-argpipe/pkg/pipeline"
	"github.com/askiada/go-argpipe/pkg/pipeline/drawer"
	"github.com/askiada/go-argpipe/pkg/pipeline/measure"
	"github.com/askiada/go-argpipe/pkg/stages"
)

type rootOptions struct {
	configFile string
	mode       string
	logLevel   string
	logDev     bool
	drawFile   string
	measure    bool
	metrics    bool
	list       bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "argpipe [flags] action [args] [=> action [args]]...",
		Short: "Run pipelines of actions separated by =>",
		Long: `argpipe runs the first action and hands every object it emits to the next action.

Actions of the next stages take objects as their pipe target or, for the others,
read their arguments from the object properties. "$filter", "$count" and "$first"
are built in, and "!program" runs a program fed with JSON lines.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, cmd, opts, args)
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVar(&opts.configFile, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&opts.mode, "mode", "", `execution mode, "serialized" or "parallel" (overrides config)`)
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")
	cmd.Flags().BoolVar(&opts.logDev, "log-dev", false, "human readable logs")
	cmd.Flags().StringVar(&opts.drawFile, "draw", "", "write the pipeline graph in DOT format to this file")
	cmd.Flags().BoolVar(&opts.measure, "measure", false, "print stage timings on stderr")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print stage metrics on stderr")
	cmd.Flags().BoolVar(&opts.list, "list", false, "list the available actions")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.mode != "" {
		cfg.Mode = opts.mode
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	cfg.Log.Development = cfg.Log.Development || opts.logDev

	mode, err := cfg.PipelineMode()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	def, err := demo.Definition()
	if err != nil {
		return errors.Wrap(err, "unable to build actions")
	}
	registry, err := stages.NewRegistry()
	if err != nil {
		return errors.Wrap(err, "unable to register action stages")
	}

	if opts.list {
		return listActions(cmd.OutOrStdout(), def, registry)
	}
	if len(args) == 0 {
		return cmd.Help()
	}

	out := newPrinter(cmd.OutOrStdout(), opts.noColor)
	provider := external.NewProcessProvider(
		external.WithStdin(cmd.InOrStdin()),
		external.WithStdout(cmd.OutOrStdout()),
		external.WithStderr(cmd.ErrOrStderr()),
	)
	managerOpts := []pipeline.ManagerOption{
		pipeline.WithMode(mode),
		pipeline.WithLogger(logger),
		pipeline.WithActionStages(registry),
		pipeline.WithExternalProvider(provider),
		pipeline.WithObjectMapper(demo.Mapper{}),
		pipeline.WithExitHandler(out.Print),
	}

	var msr measure.Measure
	if opts.measure || opts.drawFile != "" {
		msr = measure.NewDefaultMeasure()
		managerOpts = append(managerOpts, pipeline.WithPipelineOptions(measure.PipelineMeasure(msr)))
	}
	if opts.drawFile != "" {
		managerOpts = append(managerOpts,
			pipeline.WithPipelineOptions(drawer.PipelineDrawer(drawer.NewDOTDrawer(opts.drawFile), msr)))
	}
	reg := prometheus.NewRegistry()
	if opts.metrics {
		managerOpts = append(managerOpts, pipeline.WithPipelineOptions(measure.NewPrometheusMeasure(reg)))
	}

	args = cfg.ExpandAliases(args, pipeline.PipeIndicator)
	logger.Debug("running pipeline", zap.Strings("args", args), zap.Stringer("mode", mode))

	runErr := pipeline.NewHook(def, managerOpts...).Execute(ctx, args)
	runErr = multierr.Append(runErr, out.Err())

	if opts.measure {
		runErr = multierr.Append(runErr, writeMeasure(cmd.ErrOrStderr(), msr))
	}
	if opts.metrics {
		runErr = multierr.Append(runErr, writeMetrics(cmd.ErrOrStderr(), reg))
	}

	return runErr
}

func listActions(w io.Writer, def *command.Definition, registry *pipeline.ActionStageRegistry) error {
	for _, act := range def.Actions() {
		name := act.Name()
		if aliases := act.Aliases(); len(aliases) > 0 {
			name += " (" + strings.Join(aliases, ", ") + ")"
		}
		if _, err := fmt.Fprintf(w, "%-20s %s\n", name, act.Description()); err != nil {
			return errors.Wrap(err, "unable to list actions")
		}
	}
	for _, key := range registry.Keys() {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", key, "built-in stage"); err != nil {
			return errors.Wrap(err, "unable to list stages")
		}
	}

	return nil
}
