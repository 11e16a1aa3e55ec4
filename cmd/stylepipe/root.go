package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sjc5/stylepipe"
	"github.com/sjc5/stylepipe/internal/config"
	"github.com/sjc5/stylepipe/internal/isp"
	"github.com/sjc5/stylepipe/internal/logging"
	"github.com/spf13/cobra"
)

// Set at link time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	root       string
	configFile string
	normalize  bool
	notify     string
	compiler   string
	verbosity  int
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "stylepipe",
		Short: "Compile, prefix and minify SCSS into CSS",
		Long: `stylepipe compiles every stylesheet under the source directory, stamps it
with a license banner, adds vendor prefixes and writes a full and a minified
copy to the dist directory. Run without a command to build once.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetVerbosity(opts.verbosity)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, out)
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.root, "root", ".", "Project root; src and dist are resolved against it")
	flags.StringVar(&opts.configFile, "config", "", "Config file (default is stylepipe.toml or stylepipe.yaml in the root)")
	flags.BoolVar(&opts.normalize, "normalize", false, "Normalize rules after prefixing")
	flags.StringVar(&opts.notify, "notify", "", "Notifier: desktop, log or none")
	flags.StringVar(&opts.compiler, "compiler", "", "Compiler: embedded, cli or css")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "build",
			Short: "Build every stylesheet once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBuild(cmd, opts, out)
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Rebuild whenever a stylesheet changes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWatch(cmd, opts, out)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(out, "stylepipe version %s\n", version)
			},
		},
	)

	return rootCmd
}

// overrides carries only the flags the user actually set, so unset flags
// don't mask the config file or environment.
func (o *options) overrides(cmd *cobra.Command) map[string]interface{} {
	m := map[string]interface{}{}
	flags := cmd.Flags()
	if flags.Changed("root") {
		m["root"] = o.root
	}
	if flags.Changed("normalize") {
		m["normalize"] = o.normalize
	}
	if flags.Changed("notify") {
		m["notify.kind"] = o.notify
	}
	if flags.Changed("compiler") {
		m["compiler.kind"] = o.compiler
	}
	if flags.Changed("verbose") {
		m["verbosity"] = o.verbosity
	}
	return m
}

func (o *options) pipe(cmd *cobra.Command) (stylepipe.StylePipe, error) {
	settings, err := config.Load(config.Options{
		Root:      o.root,
		File:      o.configFile,
		Overrides: o.overrides(cmd),
	})
	if err != nil {
		return stylepipe.StylePipe{}, err
	}
	logging.SetVerbosity(settings.Verbosity)
	if settings.ConfigFile != "" {
		logging.Log.Debugf("using config %s", settings.ConfigFile)
	}
	return stylepipe.FromSettings(settings, logging.Log)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runBuild(cmd *cobra.Command, opts *options, out io.Writer) error {
	pipe, err := opts.pipe(cmd)
	if err != nil {
		return err
	}
	defer pipe.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	report, err := pipe.Build(ctx)
	if report != nil && len(report.Files) > 0 {
		renderSummary(out, report)
	}
	return err
}

func runWatch(cmd *cobra.Command, opts *options, out io.Writer) error {
	pipe, err := opts.pipe(cmd)
	if err != nil {
		return err
	}
	defer pipe.Close()

	// Sizes are shown after every rebuild, whatever the log level.
	pipe.Config.WatchConfig.OnBuildComplete = func(report *isp.Report) {
		if len(report.Files) > 0 {
			renderSummary(out, report)
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	return pipe.Watch(ctx)
}

func renderSummary(out io.Writer, report *isp.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Source", "Full", "Minified", "Gzipped"})
	for _, f := range report.Files {
		t.AppendRow(table.Row{
			f.Source,
			isp.HumanSize(f.FullSize),
			isp.HumanSize(f.MinSize),
			isp.HumanSize(f.GzipSize),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
