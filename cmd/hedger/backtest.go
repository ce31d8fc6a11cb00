package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"Spread_Hedger/internal/backtest"
	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/openalgo"
	sig "Spread_Hedger/internal/signal"
	"Spread_Hedger/internal/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the synthetic option strategies over futures candles",
}

func init() {
	backtestCmd.PersistentFlags().String("csv", "", "read 1m candles from this CSV instead of the gateway")
	backtestCmd.PersistentFlags().Int("days", 90, "history to stitch from the gateway")
	backtestCmd.PersistentFlags().String("save", "", "write the stitched candles to this CSV")
	backtestCmd.PersistentFlags().String("out", "", "write the trade log to this CSV")
	backtestCmd.PersistentFlags().Int("last", 10, "trades listed in the report")

	spreadCmd := &cobra.Command{
		Use:   "spread",
		Short: "Bull call / bear put debit spreads on momentum confluence",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("rsi")
			kind, ok := indicator.ParseRSIKind(name)
			if !ok {
				return fmt.Errorf("unknown --rsi %q, want sma or wilder", name)
			}
			return runBacktest(cmd, func(cfg config.Config, candles []model.Candle) (backtest.Result, error) {
				bc := backtest.DefaultSpreadConfig()
				bc.Confluence = confluenceOf(cfg, sig.Momentum)
				bc.RSIKind = kind
				return backtest.RunSpread(candles, bc), nil
			})
		},
	}
	spreadCmd.Flags().String("rsi", indicator.SMARSI.String(), "RSI averaging: sma or wilder")

	backtestCmd.AddCommand(
		spreadCmd,
		&cobra.Command{
			Use:   "straddle",
			Short: "Intraday short ATM straddle with a spot stop",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBacktest(cmd, func(_ config.Config, candles []model.Candle) (backtest.Result, error) {
					return backtest.RunStraddle(candles, backtest.DefaultStraddleConfig()), nil
				})
			},
		},
		confluenceBacktestCmd("confluence", "Pullback confluence on futures points", false),
		confluenceBacktestCmd("optionbuy", "Pullback confluence converted to ATM option buying", true),
		&cobra.Command{
			Use:   "rsiscalp",
			Short: "Long only RSI(5) scalp, buy below 20 and sell above 80",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBacktest(cmd, func(_ config.Config, candles []model.Candle) (backtest.Result, error) {
					return backtest.RunRSIScalp(candles, backtest.DefaultRSIScalpConfig()), nil
				})
			},
		},
		&cobra.Command{
			Use:   "bbreversion",
			Short: "Bollinger band reversion with an RSI and EMA200 filter",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBacktest(cmd, func(cfg config.Config, candles []model.Candle) (backtest.Result, error) {
					bc := backtest.DefaultBBReversionConfig()
					bc.Sessions = cfg.Sessions
					return backtest.RunBBReversion(candles, bc)
				})
			},
		},
		&cobra.Command{
			Use:   "vwapfade",
			Short: "Short upward VWAP crosses above the EMA200",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBacktest(cmd, func(cfg config.Config, candles []model.Candle) (backtest.Result, error) {
					bc := backtest.DefaultVWAPFadeConfig()
					bc.Sessions = cfg.Sessions
					return backtest.RunVWAPFade(candles, bc), nil
				})
			},
		},
		&cobra.Command{
			Use:   "adaptive",
			Short: "Trend pullbacks or band reversion chosen by the choppiness index",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBacktest(cmd, func(cfg config.Config, candles []model.Candle) (backtest.Result, error) {
					bc := backtest.DefaultAdaptiveConfig()
					bc.Confluence = confluenceOf(cfg, sig.Pullback)
					bc.Sessions = cfg.Sessions
					return backtest.RunAdaptive(candles, bc)
				})
			},
		},
	)
}

func confluenceBacktestCmd(use, short string, optionBuy bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			allowShort, _ := cmd.Flags().GetBool("allow-short")
			return runBacktest(cmd, func(cfg config.Config, candles []model.Candle) (backtest.Result, error) {
				bc := backtest.DefaultConfluenceConfig()
				bc.Confluence = confluenceOf(cfg, sig.Pullback)
				bc.Sessions = cfg.Sessions
				bc.AllowShort = allowShort
				bc.Warmup = bc.Confluence.Params.EMA
				res := backtest.RunConfluence(candles, bc)
				if optionBuy {
					m := strategy.DefaultOptionBuyModel()
					backtest.ReportOptionBuy(cmd.OutOrStdout(), backtest.OptionBuy(res, m))
				}
				return res, nil
			})
		},
	}
	cmd.Flags().Bool("allow-short", false, "open shorts on bearish signals")
	return cmd
}

type backtestFunc func(cfg config.Config, candles []model.Candle) (backtest.Result, error)

func runBacktest(cmd *cobra.Command, run backtestFunc) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	candles, err := loadCandles(cmd, cfg)
	if err != nil {
		return err
	}
	log.Infof("[BACKTEST] %s", data.Describe(candles))

	res, err := run(cfg, candles)
	if err != nil {
		return err
	}

	last, _ := cmd.Flags().GetInt("last")
	backtest.Report(cmd.OutOrStdout(), res, last)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := backtest.WriteCSV(out, res.Trades); err != nil {
			return err
		}
		log.Infof("[BACKTEST] wrote %d trades to %s", len(res.Trades), out)
	}
	return nil
}

func loadCandles(cmd *cobra.Command, cfg config.Config) ([]model.Candle, error) {
	if path, _ := cmd.Flags().GetString("csv"); path != "" {
		return data.LoadCandles(path, openalgo.IST)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no --csv given and OPENALGO_API_KEY not set")
	}

	days, _ := cmd.Flags().GetInt("days")
	ctx, stop := signalContext()
	defer stop()

	client := newClient(cfg)
	candles, err := data.Stitch(ctx, client, client, data.StitchRequest{
		Prefix:   cfg.SymbolPrefix,
		Exchange: cfg.Exchange,
		Interval: "1m",
		Days:     days,
		Now:      time.Now().In(openalgo.IST),
	})
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := data.SaveCandles(path, candles); err != nil {
			return nil, err
		}
		log.Infof("[BACKTEST] saved %d candles to %s", len(candles), path)
	}
	return candles, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
