package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/openalgo"
	sig "Spread_Hedger/internal/signal"
)

var rootCmd = &cobra.Command{
	Use:           "hedger",
	Short:         "NIFTY debit spread hedge bot, backtests and market tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()
		level, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "logrus level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd, backtestCmd, scanCmd, oiCmd, quoteCmd, fundsCmd, compareCmd)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// loadConfig reads the layered config and validates it; live commands need
// the API key.
func loadConfig(live bool) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(live); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newClient(cfg config.Config) *openalgo.Client {
	return openalgo.New(cfg.Host, cfg.APIKey, openalgo.WithMarket(cfg.Exchange, cfg.SymbolPrefix))
}

func confluenceOf(cfg config.Config, mode sig.RSIMode) sig.Confluence {
	return sig.Confluence{
		Params: indicator.Params{
			EMA:        cfg.Signal.EMAPeriod,
			RSI:        cfg.Signal.RSIPeriod,
			MACDFast:   cfg.Signal.MACDFast,
			MACDSlow:   cfg.Signal.MACDSlow,
			MACDSignal: cfg.Signal.MACDSignal,
		},
		Overbought: cfg.Signal.RSIOverbought,
		Oversold:   cfg.Signal.RSIOversold,
		Mode:       mode,
	}
}
