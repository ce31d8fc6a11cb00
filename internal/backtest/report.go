package backtest

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"

	"Spread_Hedger/internal/model"
)

type tradeCSVRow struct {
	ID         string  `csv:"id"`
	Kind       string  `csv:"type"`
	EntryTime  string  `csv:"entry_time"`
	ExitTime   string  `csv:"exit_time"`
	EntryPrice float64 `csv:"entry_price"`
	ExitPrice  float64 `csv:"exit_price"`
	Points     float64 `csv:"net_pts"`
	PnL        float64 `csv:"pnl"`
	Reason     string  `csv:"reason"`
}

const csvTime = "2006-01-02 15:04:05"

// WriteCSV writes trades to path.
func WriteCSV(path string, trades []model.TradeRecord) error {
	rows := make([]*tradeCSVRow, len(trades))
	for i, t := range trades {
		rows[i] = &tradeCSVRow{
			ID:         t.ID,
			Kind:       t.Kind,
			EntryTime:  t.EntryTime.Format(csvTime),
			ExitTime:   t.ExitTime.Format(csvTime),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Points:     t.Points,
			PnL:        t.PnL,
			Reason:     string(t.Reason),
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write trades: %w", err)
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Report renders the summary of res as a table, followed by the last few
// trades.
func Report(w io.Writer, res Result, lastTrades int) {
	s := res.Summary
	fmt.Fprintf(w, "%s: %d bars\n", res.Name, res.Bars)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Trades", strconv.Itoa(s.Trades)})
	table.Append([]string{"Wins / Losses", fmt.Sprintf("%d / %d", s.Wins, s.Losses)})
	table.Append([]string{"Win rate", fmt.Sprintf("%.2f%%", s.WinRate)})
	table.Append([]string{"Total points", money(s.TotalPoints)})
	table.Append([]string{"Total P&L", money(s.TotalPnL)})
	table.Append([]string{"Avg P&L", money(s.AvgPnL)})
	table.Append([]string{"Std dev", money(s.StdDev)})
	table.Append([]string{"Max drawdown", money(s.MaxDrawdown)})
	if !res.InitialCapital.IsZero() {
		table.Append([]string{"Initial capital", res.InitialCapital.StringFixed(2)})
		table.Append([]string{"Final capital", res.FinalCapital.StringFixed(2)})
	}
	table.Render()

	if lastTrades <= 0 || len(res.Trades) == 0 {
		return
	}
	start := len(res.Trades) - lastTrades
	if start < 0 {
		start = 0
	}
	trades := tablewriter.NewWriter(w)
	trades.SetHeader([]string{"ID", "Type", "Entry", "Exit", "Entry Px", "Exit Px", "Pts", "PnL", "Reason"})
	for _, t := range res.Trades[start:] {
		trades.Append([]string{
			t.ID, t.Kind,
			t.EntryTime.Format(csvTime), t.ExitTime.Format(csvTime),
			money(t.EntryPrice), money(t.ExitPrice),
			money(t.Points), money(t.PnL),
			string(t.Reason),
		})
	}
	trades.Render()
}

// ReportOptionBuy renders the option buying conversion of a confluence run.
func ReportOptionBuy(w io.Writer, r OptionBuyReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Trades", strconv.Itoa(r.Trades)})
	table.Append([]string{"Win rate", fmt.Sprintf("%.2f%%", r.WinRate)})
	table.Append([]string{"Futures points", money(r.FuturesPoints)})
	table.Append([]string{"Option points", money(r.OptionPoints)})
	table.Append([]string{"P&L", money(r.PnL)})
	table.Append([]string{"ROI", fmt.Sprintf("%.2f%%", r.ROI)})
	table.Render()
}
