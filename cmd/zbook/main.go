package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/zarlcorp/core/pkg/zapp"
	"github.com/zarlcorp/zbook/internal/cli"
	"github.com/zarlcorp/zbook/internal/config"
	"github.com/zarlcorp/zbook/internal/logger"
	"github.com/zarlcorp/zbook/internal/store"
	"github.com/zarlcorp/zbook/internal/tui"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	app := zapp.New(zapp.WithName("zbook"))

	ctx, cancel := zapp.SignalContext(context.Background())

	code := run(ctx, os.Args[1:])
	cancel()

	if err := app.Close(); err != nil {
		slog.Error("shutdown", "err", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	configPath, rest, err := cli.ParseGlobal(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zbook: %v\n", err)
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zbook: %v\n", err)
		return 1
	}

	if len(rest) == 0 {
		if err := runTUI(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "zbook: %v\n", err)
			return 1
		}
		return 0
	}

	log := logger.New(cfg.Env, cfg.LogLevel, os.Stderr)
	slog.SetDefault(log)

	err = cli.New(version, cfg, log).Run(ctx, rest)
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintf(os.Stderr, "zbook: %v\n", err)
		return 2
	}
	fmt.Fprintf(os.Stderr, "zbook: %v\n", err)
	return 1
}

func runTUI(ctx context.Context, cfg *config.Config) error {
	// the terminal belongs to bubbletea; log to a file instead
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.DataDir, "zbook.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	log := logger.New(cfg.Env, cfg.LogLevel, f)
	slog.SetDefault(log)

	var opts []tui.Option
	if cfg.Storage == config.StorageRedis {
		gw, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithGateway(gw))
	}

	m := tui.New(ctx, version, cfg, log, opts...)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	closeModel(m, finalModel)
	return err
}

// closeModel closes the model the program ended with. A vault unlocked in
// the password view only exists there, so the initial model is the fallback.
func closeModel(initial tui.Model, final tea.Model) {
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
		return
	}
	initial.Close()
}
