package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/around-the-grounds/internal/coordinator"
	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/parser/builtin"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitError   = 1 // fatal error, or every source failed
	ExitPartial = 2 // some sources failed, others returned events
)

// Version is set at build time.
var Version = "dev"

// Options are the collaborators the commands use. Zero fields take defaults.
type Options struct {
	Registry *parser.Registry
	Stdout   io.Writer
	Stderr   io.Writer
	Now      func() time.Time
}

type app struct {
	opts     Options
	viper    *viper.Viper
	settings *settings
	exitCode int
}

func newApp(opts Options) *app {
	if opts.Registry == nil {
		opts.Registry = builtin.NewRegistry()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &app{opts: opts, viper: viper.New()}
}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd(opts Options) *cobra.Command {
	return newApp(opts).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "around-the-grounds",
		Short: "Track food truck schedules at local breweries",
		Long: `Scrapes food truck schedules from every configured source and prints
the coming week's events. Sources that fail are retried with backoff and
reported without hiding the events from sources that worked.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.preRun,
		RunE:              a.runSchedule,
	}
	cmd.SetOut(a.opts.Stdout)
	cmd.SetErr(a.opts.Stderr)

	addPersistentFlags(cmd)
	cmd.Flags().StringP("format", "f", string(FormatText), "Output format: text, json, web or ics")
	cmd.Flags().StringP("output", "o", "", "Write output to this file instead of stdout")
	cmd.Flags().String("sort", string(SortByTime), "Event order: time, source or vendor")

	cmd.AddCommand(a.sourcesCmd(), a.announceCmd())
	return cmd
}

func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	if err := bindSettings(a.viper, cmd); err != nil {
		return err
	}
	s, err := loadSettings(a.viper)
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

// ExecuteContext runs the CLI with args and returns the process exit code.
func ExecuteContext(ctx context.Context, args []string, opts Options) int {
	a := newApp(opts)
	cmd := a.rootCmd()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.opts.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return a.exitCode
}

// exitCodeFor maps a run's outcome to an exit code: errors with no events
// is a failure, errors alongside events is a partial success.
func exitCodeFor(events []*event.Event, errs []*coordinator.SourceError) int {
	switch {
	case len(errs) > 0 && len(events) == 0:
		return ExitError
	case len(errs) > 0:
		return ExitPartial
	default:
		return ExitSuccess
	}
}
