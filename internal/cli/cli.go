// Package cli implements zbook's command-line subcommands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/zarlcorp/zbook/internal/config"
	"github.com/zarlcorp/zbook/internal/logger"
	"github.com/zarlcorp/zbook/internal/lookup"
	"github.com/zarlcorp/zbook/internal/search"
	"github.com/zarlcorp/zbook/internal/store"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

// App runs one subcommand.
type App struct {
	version string
	cfg     *config.Config
	log     *slog.Logger
	out     io.Writer
	errOut  io.Writer

	searcher    search.Searcher
	openGateway func(ctx context.Context) (store.Gateway, error)
}

// Option configures an App.
type Option func(*App)

// WithOutput redirects stdout and stderr.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

// WithSearcher replaces the lookup client built from config.
func WithSearcher(s search.Searcher) Option {
	return func(a *App) { a.searcher = s }
}

// WithGateway replaces the config-selected persistence backend.
func WithGateway(open func(ctx context.Context) (store.Gateway, error)) Option {
	return func(a *App) { a.openGateway = open }
}

// New creates an App for cfg.
func New(version string, cfg *config.Config, log *slog.Logger, opts ...Option) *App {
	if log == nil {
		log = logger.Discard()
	}
	a := &App{
		version: version,
		cfg:     cfg,
		log:     log,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
	for _, o := range opts {
		o(a)
	}

	if a.searcher == nil {
		a.searcher = lookup.NewClient(lookup.Config{
			BaseURL: cfg.Lookup.URL,
			Timeout: cfg.Lookup.Timeout,
			Logger:  log,
		})
	}
	if a.openGateway == nil {
		a.openGateway = func(ctx context.Context) (store.Gateway, error) {
			return OpenGateway(ctx, cfg, a.errOut)
		}
	}
	return a
}

// Run dispatches args[0] to its subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: zbook <command> [flags]", ErrUsage)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(a.out, "zbook %s\n", a.version)
		return nil
	case "search":
		return a.cmdSearch(ctx, rest)
	case "add":
		return a.cmdAdd(ctx, rest)
	case "list":
		return a.cmdList(ctx, rest)
	case "remove":
		return a.cmdRemove(ctx, rest)
	case "serve":
		return a.cmdServe(ctx, rest)
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

// ParseGlobal splits global flags from the subcommand and its arguments.
func ParseGlobal(args []string) (configPath string, rest []string, err error) {
	fs := pflag.NewFlagSet("zbook", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVar(&configPath, "config", "", "path to a YAML config file")

	if err := fs.Parse(args); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return configPath, fs.Args(), nil
}

func (a *App) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("zbook "+name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *App) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
