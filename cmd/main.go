package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/rs/zerolog"

	"okx-trader/internal/config"
	"okx-trader/internal/exchange/okx"
	"okx-trader/internal/metrics"
	"okx-trader/internal/strategy"
	"okx-trader/internal/supervisor"
	"okx-trader/internal/util"
)

func main() {
	if err := newCommand().ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "okx-trader: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *ffcli.Command {
	fs := flag.NewFlagSet("okx-trader", flag.ExitOnError)
	configDir := fs.String("config", "config", "directory holding config.yaml and .env")
	mode := fs.String("mode", "menu", "menu, grid, trend or both")
	logLevel := fs.String("log-level", "", "override app.log_level")

	return &ffcli.Command{
		Name:       "okx-trader",
		ShortUsage: "okx-trader [flags]",
		ShortHelp:  "run grid and trend strategies against OKX",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix("OKX_TRADER")},
		Exec: func(ctx context.Context, _ []string) error {
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if *logLevel != "" {
				cfg.App.LogLevel = *logLevel
			}

			a := newApp(cfg)
			if err := cfg.Validate(); err != nil {
				a.log.Warn().Err(err).Msg("requests will be signed with empty credentials")
			}
			if cfg.App.MetricsAddr != "" {
				srv := metrics.Serve(cfg.App.MetricsAddr)
				defer srv.Close()
				a.log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics endpoint started")
			}

			if *mode == "menu" {
				return a.menu(os.Stdin)
			}
			m, err := supervisor.ParseMode(*mode)
			if err != nil {
				return err
			}
			return a.run(m)
		},
	}
}

type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *okx.Client
}

func newApp(cfg *config.Config) *app {
	log := util.NewLogger(cfg.App.LogLevel, cfg.App.PrettyLog)
	endpoint := cfg.Endpoint()
	client := okx.NewClient(cfg.Credentials(), endpoint,
		okx.WithHTTPClient(okx.NewHTTPClient(endpoint.Timeout, cfg.Network.DNSServer)),
		okx.WithMaxAttempts(cfg.OKX.MaxAttempts),
		okx.WithLogger(log.With().Str("component", "okx").Logger()),
	)
	return &app{cfg: cfg, log: log, client: client}
}

// run authenticates and blocks in the selected mode until SIGINT or SIGTERM.
// Each call gets its own supervisor since a stopped run state is never reused.
func (a *app) run(mode supervisor.Mode) error {
	grid := strategy.NewGridStrategy(a.cfg.Strategies.Grid, a.client, a.log)
	trend := strategy.NewTrendStrategy(a.cfg.Strategies.Trend, a.client, a.log)

	sup, err := supervisor.New(context.Background(), a.client, grid, trend, a.log)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCh:
			sup.Stop()
		case <-done:
		}
	}()

	a.log.Info().Str("mode", string(mode)).Msg("starting strategies, press Ctrl+C to stop")
	return sup.Run(mode)
}
