// Package cli implements the isamples command.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/isamplesorg/isamples-go/client"
	"github.com/isamplesorg/isamples-go/extract"
	"github.com/isamplesorg/isamples-go/internal/config"
	"github.com/isamplesorg/isamples-go/internal/format"
)

var logger = loggo.GetLogger("isamples.cli")

// app holds the state shared by the commands of one invocation.
type app struct {
	stdout, stderr io.Writer

	// Global flags
	cfgFile   string
	logLevel  string
	colorMode string
	numbers   string

	// Where .isamples.yaml is looked for when --config is not given
	searchDirs []string

	cfg *config.Config
}

// Execute runs the command with the arguments of the process and returns its
// exit status.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr, config.DefaultSearchDirs())
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, searchDirs []string) int {
	a := &app{stdout: stdout, stderr: stderr, searchDirs: searchDirs}
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, syscall.EPIPE) {
		// stdout is a pipe and something closed it (e.g. 'head' or 'less').
		// In this case we don't want to complain.
		return 0
	}
	fmt.Fprintf(stderr, "error: %s\n", err)
	return 1
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "isamples",
		Short: "Query iSamples services",
		Long: `isamples retrieves identifiers and records from the iSamples services.

SERVICE is the name of a configured iSamples endpoint, see 'isamples services'.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setUp,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./.isamples.yaml or $HOME/.isamples.yaml)")
	flags.StringVarP(&a.logLevel, "loglevel", "L", "info", "logging level: critical, error, warning, info, debug, trace")
	flags.StringVar(&a.colorMode, "color", "auto", "colorize output: auto, always, never")
	flags.StringVar(&a.numbers, "numbers", "lossless", "number representation: lossless, float")

	root.AddCommand(
		a.servicesCommand(),
		a.fieldsCommand(),
		a.pidsCommand(),
		a.recordsCommand(),
		a.streamCommand(),
	)
	return root
}

// setUp loads the configuration and configures logging.  Flags given on the
// command line win over the configuration.
func (a *app) setUp(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(a.cfgFile, a.searchDirs...).Load()
	if err != nil {
		return errors.Trace(err)
	}
	if cmd.Flags().Changed("loglevel") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("numbers") {
		cfg.Numbers = a.numbers
	}
	if err := config.Validate(cfg); err != nil {
		return errors.Trace(err)
	}
	switch a.colorMode {
	case "auto", "always", "never":
	default:
		return errors.NotValidf("--color value %q (use auto, always or never)", a.colorMode)
	}

	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(a.stderr, formatLogEntry)); err != nil {
		return errors.Trace(err)
	}
	if err := loggo.ConfigureLoggers("<root>=" + strings.ToUpper(cfg.LogLevel)); err != nil {
		return errors.Annotate(err, "configuring logging")
	}
	a.cfg = cfg
	return nil
}

func formatLogEntry(entry loggo.Entry) string {
	return fmt.Sprintf("%s:%s %s", entry.Level, entry.Module, entry.Message)
}

// newClient returns a client for the service called name.
func (a *app) newClient(name string) (*client.Client, error) {
	svc, err := a.cfg.Lookup(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	numbers, err := extract.ParseNumberMode(a.cfg.Numbers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger.Debugf("using service %s at %s", svc.Name(), svc.URL)
	return client.New(svc.URL,
		client.WithTimeout(a.cfg.Timeout),
		client.WithChunkSize(a.cfg.ChunkSize),
		client.WithConcurrency(a.cfg.Concurrency),
		client.WithNumberMode(numbers),
	), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// output is where records go: stdout, buffered, possibly colored.
type output struct {
	*format.Encoder
	w *bufio.Writer
}

// newOutput returns an output writing to stdout with the given indentation
// (negative for one line per value).  Values are flushed one by one when
// stdout is a terminal.
func (a *app) newOutput(indent int) *output {
	var colorizer *format.Colorizer
	switch a.colorMode {
	case "always":
		colorizer = &format.DefaultColorizer
	case "auto":
		if isTerminal(a.stdout) {
			colorizer = &format.DefaultColorizer
		}
	}
	stdout := a.stdout
	if f, ok := stdout.(*os.File); ok && colorizer != nil {
		stdout = colorable.NewColorable(f)
	}
	w := bufio.NewWriter(stdout)
	enc := format.NewEncoder(w, indent, colorizer)
	enc.AutoFlush = isTerminal(a.stdout)
	return &output{Encoder: enc, w: w}
}

// Close flushes what is left in the buffer.
func (o *output) Close() error {
	return o.w.Flush()
}
