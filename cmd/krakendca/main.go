// Command krakendca places dollar-cost-averaging limit orders on Kraken.
//
// Usage:
//
//	krakendca --config-dir . once
//	krakendca --config-dir . run
//	krakendca --config-dir . report
//
// Every config*.yaml file in the config directory describes one Kraken
// account. Credentials may come from KRAKEN_API_KEY and KRAKEN_API_SECRET.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal"
	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/logger"
	"github.com/vadiminshakov/krakendca/internal/services/report"
	"github.com/vadiminshakov/krakendca/internal/storage/orders"
)

const (
	flagConfigDir = "config-dir"
	flagEnvFile   = "env-file"
	flagLogFile   = "log-file"
	flagLogLevel  = "log-level"
)

func main() {
	app := &cli.App{
		Name:  "krakendca",
		Usage: "dollar-cost-averaging bot for Kraken",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfigDir,
				Usage:   "directory with config*.yaml files",
				Value:   ".",
				EnvVars: []string{"KRAKEN_DCA_CONFIG_DIR"},
			},
			&cli.StringFlag{
				Name:  flagEnvFile,
				Usage: "dotenv file with credentials",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "optional file receiving JSON logs",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "debug, info, warn or error",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "once",
				Usage:  "evaluate every configured pair once and exit",
				Action: runOnce,
			},
			{
				Name:   "run",
				Usage:  "evaluate every configured pair on the configured interval",
				Action: runLoop,
			},
			{
				Name:   "report",
				Usage:  "summarize the recorded purchase history",
				Action: runReport,
			},
		},
		DefaultCommand: "once",
	}

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*zap.Logger, []config.Config, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = c.String(flagLogLevel)
	logCfg.OutputFile = c.String(flagLogFile)
	l, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, err
	}

	if err := config.LoadEnv(c.String(flagEnvFile)); err != nil {
		return nil, nil, err
	}

	configs, err := config.LoadAll(c.String(flagConfigDir))
	if err != nil {
		return nil, nil, err
	}
	if len(configs) == 0 {
		l.Warn("no configuration found", zap.String("dir", c.String(flagConfigDir)))
	}

	return l, configs, nil
}

func newBot(ctx context.Context, conf config.Config, l *zap.Logger) (*internal.TradingBot, error) {
	ex, err := internal.NewExchange(conf, l)
	if err != nil {
		return nil, errors.Wrapf(err, "create exchange for %s", conf.UserName)
	}

	bot, err := internal.NewTradingBot(ctx, conf, ex, l)
	if err != nil {
		return nil, errors.Wrapf(err, "create trading bot for %s", conf.UserName)
	}

	return bot, nil
}

func runOnce(c *cli.Context) error {
	l, configs, err := setup(c)
	if err != nil {
		return err
	}
	defer l.Sync()

	failed := 0
	for _, conf := range configs {
		bot, err := newBot(c.Context, conf, l)
		if err != nil {
			l.Error("skipping account", zap.String("config", conf.Path), zap.Error(err))
			failed++
			continue
		}

		for _, outcome := range bot.RunOnce(c.Context) {
			if outcome.Kind == domain.OutcomeFailed {
				failed++
			}
		}

		if err := bot.Close(); err != nil {
			l.Error("failed to close bot", zap.String("user", conf.UserName), zap.Error(err))
		}
	}

	if failed > 0 {
		return cli.Exit(errors.Errorf("%d evaluation(s) failed", failed), 1)
	}

	return nil
}

func runLoop(c *cli.Context) error {
	l, configs, err := setup(c)
	if err != nil {
		return err
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, conf := range configs {
		bot, err := newBot(gctx, conf, l)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}

		g.Go(func() error {
			defer bot.Close()
			l.Info("started", zap.String("user", conf.UserName), zap.Duration("interval", conf.Interval))
			return bot.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	l.Info("stopped")

	return nil
}

func runReport(c *cli.Context) error {
	l, configs, err := setup(c)
	if err != nil {
		return err
	}
	defer l.Sync()

	var history []domain.Order
	for _, conf := range configs {
		store, err := orders.NewWALStore(conf.OrdersDir)
		if err != nil {
			return errors.Wrapf(err, "open orders of %s", conf.UserName)
		}
		recorded, err := store.Orders()
		_ = store.Close()
		if err != nil {
			return errors.Wrapf(err, "read orders of %s", conf.UserName)
		}
		history = append(history, recorded...)
	}

	if len(history) == 0 {
		l.Info("no orders recorded yet")
		return nil
	}

	prices := report.FetchPrices(c.Context, clients.NewKrakenClient("", ""), report.Pairs(history), l)
	report.Log(l, report.Summarize(history, prices))

	return nil
}
