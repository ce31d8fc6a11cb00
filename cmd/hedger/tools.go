package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"Spread_Hedger/internal/openalgo"
	"Spread_Hedger/internal/options"
	"Spread_Hedger/internal/scan"
	sig "Spread_Hedger/internal/signal"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Evaluate the confluence signal on the current future",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		client := newClient(cfg)
		symbol, err := futureArg(ctx, cmd, client)
		if err != nil {
			return err
		}
		log.Infof("[SCAN] scanning %s", symbol)

		candles, err := client.Candles(ctx, symbol, cfg.HistoryDays)
		if err != nil {
			return err
		}
		conf := confluenceOf(cfg, sig.Pullback)
		snap, err := scan.Take(candles, conf, scan.DefaultOptions())
		if err != nil {
			return err
		}
		for _, line := range snap.Lines(conf) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

var oiCmd = &cobra.Command{
	Use:   "oi",
	Short: "Monitor futures OI buildup and the ATM put/call ratio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		client := newClient(cfg)
		symbol, err := futureArg(ctx, cmd, client)
		if err != nil {
			return err
		}
		m := scan.NewOIMonitor(client, cfg.Exchange, symbol, cfg.StrikeStep)
		atm, err := m.Start(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "--- Monitoring %s & ATM %d ---\n", symbol, atm)
		fmt.Fprintln(out, "TIME     | FUT Price | FUT OI      | SIGNAL                 | PCR (ATM)")
		fmt.Fprintln(out, strings.Repeat("-", 72))

		interval, _ := cmd.Flags().GetDuration("interval")
		count, _ := cmd.Flags().GetInt("count")
		err = m.Run(ctx, interval, count, func(r scan.OIRow) { fmt.Fprintln(out, r) })
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol...]",
	Short: "Show quotes; defaults to the current future",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		client := newClient(cfg)
		if len(args) == 0 {
			symbol, err := futureArg(ctx, cmd, client)
			if err != nil {
				return err
			}
			args = []string{symbol}
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Symbol", "LTP", "Change", "Change %", "Bid", "Ask", "OI"})
		for _, symbol := range args {
			q, err := client.Quotes(ctx, symbol, cfg.Exchange)
			if err != nil {
				return err
			}
			table.Append([]string{
				q.Symbol,
				q.LTPDecimal().StringFixed(2),
				strconv.FormatFloat(q.Change(), 'f', 2, 64),
				strconv.FormatFloat(q.ChangePercent(), 'f', 2, 64),
				q.BidDecimal().StringFixed(2),
				q.AskDecimal().StringFixed(2),
				strconv.FormatFloat(q.OI, 'f', 0, 64),
			})
		}
		table.Render()
		return nil
	},
}

var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "Show the account margin summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		f, err := newClient(cfg).Funds(ctx)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Field", "Amount"})
		table.Append([]string{"Available cash", f.AvailableCash.StringFixed(2)})
		table.Append([]string{"Collateral", f.Collateral.StringFixed(2)})
		table.Append([]string{"Realized M2M", f.Realized.StringFixed(2)})
		table.Append([]string{"Unrealized M2M", f.Unrealized.StringFixed(2)})
		table.Append([]string{"Utilised", f.Utilised.StringFixed(2)})
		table.Render()
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the hedge structures under Black-Scholes",
	RunE: func(cmd *cobra.Command, args []string) error {
		spot, _ := cmd.Flags().GetFloat64("spot")
		width, _ := cmd.Flags().GetFloat64("width")
		days, _ := cmd.Flags().GetFloat64("days")
		vol, _ := cmd.Flags().GetFloat64("vol")
		rate, _ := cmd.Flags().GetFloat64("rate")
		step, _ := cmd.Flags().GetInt("step")

		bs := options.BlackScholes{Rate: rate, Vol: vol}
		atm := float64(options.RoundStrike(spot, step))
		structures := []options.Structure{
			options.BullCallSpread(atm, width, days),
			options.BearPutSpread(atm, width, days),
			options.LongStraddle(atm, days),
			options.ShortStraddle(atm, days),
			options.ShortStrangle(atm, width, days),
			options.IronButterfly(atm, width, days),
			options.CalendarSpread(atm, options.Call, days, days+28),
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Structure", "Premium", "Net", "Max Profit", "Max Loss", "Breakevens", "Theta", "Vega", "Defined Risk"})
		for _, s := range structures {
			a := s.Price(bs, spot).Analyze(bs, spot, 0.1, 801)
			p := a.Profile()
			table.Append([]string{
				p.Name,
				p.Premium,
				fmt.Sprintf("%.2f", a.NetPremium),
				bound(a.MaxProfit, a.UnboundedProfit),
				bound(a.MaxLoss, a.UnboundedLoss),
				breakevens(a.Breakevens),
				fmt.Sprintf("%.2f (%s)", a.Greeks.Theta, p.Theta),
				fmt.Sprintf("%.2f (%s)", a.Greeks.Vega, p.Vega),
				strconv.FormatBool(p.DefinedRisk),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{scanCmd, oiCmd, quoteCmd} {
		c.Flags().String("symbol", "", "futures contract; resolved for the current month when empty")
	}
	oiCmd.Flags().Duration("interval", 3*time.Second, "sampling interval")
	oiCmd.Flags().Int("count", 0, "stop after this many samples (0 runs until interrupted)")

	compareCmd.Flags().Float64("spot", 26000, "underlying price")
	compareCmd.Flags().Float64("width", 200, "spread width / wing distance")
	compareCmd.Flags().Float64("days", 7, "days to the near expiry")
	compareCmd.Flags().Float64("vol", 0.13, "annual implied volatility")
	compareCmd.Flags().Float64("rate", 0.065, "annual risk-free rate")
	compareCmd.Flags().Int("step", 50, "strike step")
}

func futureArg(ctx context.Context, cmd *cobra.Command, client *openalgo.Client) (string, error) {
	if s, _ := cmd.Flags().GetString("symbol"); s != "" {
		return s, nil
	}
	return client.ResolveFuture(ctx, time.Now().In(openalgo.IST))
}

func bound(v float64, unbounded bool) string {
	if unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%.2f", v)
}

func breakevens(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.0f", x)
	}
	return strings.Join(parts, " / ")
}
