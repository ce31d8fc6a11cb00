package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/fix"
	"Spread_Hedger/internal/hedger"
	"Spread_Hedger/internal/metrics"
	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/notify"
	"Spread_Hedger/internal/openalgo"
	"Spread_Hedger/internal/servers"
	"Spread_Hedger/internal/wsclient"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live hedge bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			cfg.DryRun = true
		}
		if s, _ := cmd.Flags().GetString("strategy"); s != "" {
			cfg.Strategy = s
		}
		mode := hedger.ChooseMode(cfg.Strategy)

		ctx, stop := signalContext()
		defer stop()

		client := newClient(cfg)
		quotes := data.NewQuoteStore(ctx)
		broker := &streamingBroker{Client: client, quotes: quotes, maxAge: 10 * time.Second}

		bus := EventBus.New()
		if err := metrics.Subscribe(bus); err != nil {
			return fmt.Errorf("metrics subscribe: %w", err)
		}
		if err := notify.Subscribe(bus, notifiers()...); err != nil {
			return fmt.Errorf("notify subscribe: %w", err)
		}

		var opts []hedger.Option
		var router *fix.Router
		if cfg.Router == "fix" {
			router = fix.NewRouter(quotes, fix.Credentials{
				Username: os.Getenv("FIX_USERNAME"),
				Password: os.Getenv("FIX_PASSWORD"),
			})
			if err := router.Start(cfg.FIXConfig); err != nil {
				return fmt.Errorf("fix init: %w", err)
			}
			defer router.Stop()
			opts = append(opts, hedger.WithRouter(router))
		}

		bot := hedger.New(cfg, mode, broker, bus, opts...)
		if err := bot.ResolveUnderlying(ctx); err != nil {
			log.Warnf("[MAIN] %v; the entry loop will retry", err)
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return bot.Run(ctx) })
		g.Go(func() error {
			return servers.NewControl(bot, quotes).Serve(ctx, cfg.ControlAddr)
		})
		g.Go(func() error {
			return streamWhenResolved(ctx, bot, func(ctx context.Context, underlying string) error {
				if router != nil {
					router.Subscribe(underlying)
				}
				ws := wsclient.New(cfg.WSURL, cfg.APIKey, cfg.Exchange, underlying)
				return ws.Run(ctx, func(q model.Quote) {
					quotes.Set(q)
					metrics.RecordTick("openalgo_ws", q.Symbol, q.LTP)
				})
			})
		})

		err = g.Wait()
		log.Info("[MAIN] shutting down")
		if pos := bot.Status().Position; pos != nil {
			log.Warnf("[MAIN] exiting with open position %s (%s/%s)", pos.Kind, pos.LongLeg, pos.ShortLeg)
		}
		return err
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "track positions without sending orders")
	runCmd.Flags().String("strategy", "", "debit_spread or option_buy (prompts when unset and interactive)")
}

type resolver interface {
	Resolved() <-chan struct{}
	Underlying() string
}

// streamWhenResolved waits for the bot to learn its futures contract, which
// may take several entry loop retries, then runs start for it.
func streamWhenResolved(ctx context.Context, r resolver, start func(ctx context.Context, underlying string) error) error {
	select {
	case <-ctx.Done():
		return nil
	case <-r.Resolved():
	}
	underlying := r.Underlying()
	log.Infof("[MAIN] streaming %s", underlying)
	if err := start(ctx, underlying); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func notifiers() []notify.Notifier {
	var out []notify.Notifier
	if tg, err := notify.NewTelegramFromEnv(); err == nil {
		out = append(out, tg)
	} else {
		log.Debugf("[NOTIFY] telegram disabled: %v", err)
	}
	if wh := notify.NewWebhookFromEnv(); wh != nil {
		out = append(out, wh)
	}
	return out
}

// streamingBroker answers LTP from the websocket stream while it is fresh
// and falls back to a REST quote.
type streamingBroker struct {
	*openalgo.Client
	quotes *data.QuoteStore
	maxAge time.Duration
}

func (b *streamingBroker) LTP(ctx context.Context, symbol string) (float64, error) {
	if q, ok := b.quotes.Get(symbol); ok && q.LTP > 0 && time.Since(q.Time) < b.maxAge {
		return q.LTP, nil
	}
	ltp, err := b.Client.LTP(ctx, symbol)
	if err == nil {
		metrics.RecordTick("openalgo_rest", symbol, ltp)
	}
	return ltp, err
}
