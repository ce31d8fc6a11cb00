package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/hedger"
)

const sendTimeout = 3 * time.Second

func FormatOpened(e hedger.TradeOpened) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s @ %.2f\n", strings.ToUpper(string(e.Mode)), e.Kind, e.Underlying, e.Price)
	fmt.Fprintf(&b, "BUY  %s x%d\n", e.LongLeg, e.Qty)
	if e.ShortLeg != "" {
		fmt.Fprintf(&b, "SELL %s x%d\n", e.ShortLeg, e.Qty)
	} else if e.Mode == hedger.ModeDebitSpread {
		b.WriteString("WARNING: hedge leg missing\n")
	}
	if e.DryRun {
		b.WriteString("(dry run)")
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatClosed(e hedger.TradeClosed) string {
	s := fmt.Sprintf("[%s] closed %s %.2f -> %.2f (%s)\npoints=%+.2f est_pnl=%+.2f",
		strings.ToUpper(string(e.Mode)), e.Kind, e.EntryPrice, e.ExitPrice, e.Reason, e.Points, e.EstPnL)
	if e.DryRun {
		s += "\n(dry run)"
	}
	return s
}

// Subscribe forwards trade events to every notifier without blocking the
// publisher. A NoticeSender gets the structured notice, the rest get the
// plain text summary.
func Subscribe(bus EventBus.Bus, notifiers ...Notifier) error {
	deliver := func(text string, notice TradeNotice) {
		for _, n := range notifiers {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			var err error
			if ns, ok := n.(NoticeSender); ok {
				err = ns.SendNotice(ctx, notice)
			} else {
				err = n.Send(ctx, text)
			}
			cancel()
			if err != nil {
				log.Warnf("[NOTIFY] %T send error: %v", n, err)
			}
		}
	}

	if err := bus.SubscribeAsync(hedger.TopicTradeOpened, func(e hedger.TradeOpened) {
		deliver(FormatOpened(e), OpenNotice(e))
	}, false); err != nil {
		return err
	}
	return bus.SubscribeAsync(hedger.TopicTradeClosed, func(e hedger.TradeClosed) {
		deliver(FormatClosed(e), CloseNotice(e))
	}, false)
}
