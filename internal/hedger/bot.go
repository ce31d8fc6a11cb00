package hedger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/options"
	sig "Spread_Hedger/internal/signal"
	"Spread_Hedger/internal/strategy"
)

var ErrFlat = errors.New("no open position")

// Position is the open trade. ShortLeg is empty for option buying and when
// the hedge leg could not be placed.
type Position struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Direction model.Direction `json:"direction"`
	Entry     float64         `json:"entry"`
	LongLeg   string          `json:"long_leg"`
	ShortLeg  string          `json:"short_leg,omitempty"`
	Qty       int             `json:"qty"`
	OpenedAt  time.Time       `json:"opened_at"`
}

// Status is a point-in-time view of the bot for the control server.
type Status struct {
	Mode        Mode            `json:"mode"`
	DryRun      bool            `json:"dry_run"`
	Underlying  string          `json:"underlying"`
	InSession   bool            `json:"in_session"`
	Position    *Position       `json:"position,omitempty"`
	Levels      strategy.Levels `json:"levels"`
	LastSignal  string          `json:"last_signal,omitempty"`
	LastChecked time.Time       `json:"last_checked"`
}

// Bot runs the entry and exit loops of the live hedge bot.
type Bot struct {
	cfg    config.Config
	mode   Mode
	broker Broker
	router OrderRouter
	bus    EventBus.Bus
	conf   sig.Confluence

	spread strategy.SpreadModel
	buy    strategy.OptionBuyModel

	now           func() time.Time
	exitInterval  time.Duration
	retryInterval time.Duration

	resolved    chan struct{}
	resolveOnce sync.Once

	mu          sync.Mutex
	underlying  string
	pos         *Position
	risk        *strategy.RiskManager
	lastReading sig.Reading
	lastChecked time.Time
}

type Option func(*Bot)

// WithRouter sends orders through r instead of the broker.
func WithRouter(r OrderRouter) Option {
	return func(b *Bot) { b.router = r }
}

// WithClock replaces the default clock, which reads the exchange zone so
// sessions match on hosts in any time zone.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

func WithIntervals(exit, retry time.Duration) Option {
	return func(b *Bot) {
		b.exitInterval = exit
		b.retryInterval = retry
	}
}

func New(cfg config.Config, mode Mode, broker Broker, bus EventBus.Bus, opts ...Option) *Bot {
	buy := strategy.DefaultOptionBuyModel()
	buy.LotSize = cfg.LotSize

	b := &Bot{
		cfg:    cfg,
		mode:   mode,
		broker: broker,
		router: broker,
		bus:    bus,
		conf: sig.Confluence{
			Params: indicator.Params{
				EMA:        cfg.Signal.EMAPeriod,
				RSI:        cfg.Signal.RSIPeriod,
				MACDFast:   cfg.Signal.MACDFast,
				MACDSlow:   cfg.Signal.MACDSlow,
				MACDSignal: cfg.Signal.MACDSignal,
			},
			Overbought: cfg.Signal.RSIOverbought,
			Oversold:   cfg.Signal.RSIOversold,
			Mode:       sig.Pullback,
		},
		spread:        strategy.DefaultSpreadModel(),
		buy:           buy,
		now:           func() time.Time { return time.Now().In(config.IST) },
		exitInterval:  5 * time.Second,
		retryInterval: time.Minute,
		risk:          strategy.NewRiskManager(cfg.Risk),
		resolved:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run blocks until ctx ends or a loop fails.
func (b *Bot) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"mode":    b.mode,
		"dry_run": b.cfg.DryRun,
		"lot":     b.cfg.LotSize,
		"width":   b.cfg.SpreadWidth,
	}).Info("[BOT] starting")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.entryLoop(ctx) })
	g.Go(func() error { return b.exitLoop(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// untilNextBar is the wait until two seconds past the next minute, when the
// just-closed 1m candle is available.
func untilNextBar(now time.Time) time.Duration {
	next := now.Truncate(time.Minute).Add(time.Minute + 2*time.Second)
	return next.Sub(now)
}

func (b *Bot) entryLoop(ctx context.Context) error {
	log.Info("[ENTRY] starting entry loop")
	for {
		if b.Underlying() == "" {
			if err := b.ResolveUnderlying(ctx); err != nil {
				log.Warnf("[ENTRY] %v; retrying in %s", err, b.retryInterval)
				if err := sleepCtx(ctx, b.retryInterval); err != nil {
					return err
				}
				continue
			}
		}

		if err := sleepCtx(ctx, untilNextBar(b.now())); err != nil {
			return err
		}
		if err := b.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Errorf("[ENTRY] %v", err)
		}
	}
}

func (b *Bot) exitLoop(ctx context.Context) error {
	ticker := time.NewTicker(b.exitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.CheckExit(ctx); err != nil && !errors.Is(err, ErrFlat) {
				log.Errorf("[EXIT] %v", err)
			}
		}
	}
}

// ResolveUnderlying finds the current month's futures contract.
func (b *Bot) ResolveUnderlying(ctx context.Context) error {
	sym, err := b.broker.ResolveFuture(ctx, b.now())
	if err != nil {
		return fmt.Errorf("could not resolve futures symbol: %w", err)
	}
	b.mu.Lock()
	b.underlying = sym
	b.mu.Unlock()
	b.resolveOnce.Do(func() { close(b.resolved) })
	log.Infof("[ENTRY] active symbol: %s", sym)
	return nil
}

// Resolved is closed once the first ResolveUnderlying succeeds, whether at
// startup or from the entry loop's retries.
func (b *Bot) Resolved() <-chan struct{} {
	return b.resolved
}

func (b *Bot) Underlying() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.underlying
}

// Step evaluates the latest closed bar and opens a position on a fresh
// signal while flat.
func (b *Bot) Step(ctx context.Context) error {
	now := b.now()
	if !b.cfg.Sessions.Contains(now) {
		log.Debugf("[ENTRY] outside trading sessions (%s)", now.Format("15:04"))
		return nil
	}
	underlying := b.Underlying()
	candles, err := b.broker.Candles(ctx, underlying, b.cfg.HistoryDays)
	if err != nil {
		return fmt.Errorf("fetching candles of %s: %w", underlying, err)
	}
	reading, ok := b.conf.Latest(candles)
	if !ok {
		return fmt.Errorf("no candles for %s", underlying)
	}

	b.mu.Lock()
	b.lastReading = reading
	b.lastChecked = now
	flat := b.pos == nil
	b.mu.Unlock()

	log.Infof("[ENTRY] %s", reading)
	if reading.Direction == model.Flat || !flat {
		return nil
	}
	return b.Open(ctx, reading.Direction, reading.Close)
}

func (b *Bot) order(ctx context.Context, symbol string, side model.Side) error {
	req := model.MarketOrder(symbol, b.cfg.Exchange, side, b.cfg.LotSize)
	req.Strategy = "Spread_Hedger"
	res, err := b.router.PlaceOrder(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", side, symbol, err)
	}
	if !res.OK() {
		return fmt.Errorf("%s %s rejected: %s", side, symbol, res.Message)
	}
	log.Infof("[ORDER] %s %s x%d order_id=%s", side, symbol, b.cfg.LotSize, res.OrderID)
	return nil
}

// Open enters dir at the underlying price. In spread mode the long ATM leg
// goes first; if the short OTM leg then fails the position stays tracked
// unhedged.
func (b *Bot) Open(ctx context.Context, dir model.Direction, price float64) error {
	b.mu.Lock()
	if b.pos != nil {
		b.mu.Unlock()
		return fmt.Errorf("position %s already open", b.pos.ID)
	}
	underlying := b.underlying
	b.mu.Unlock()

	atm, err := options.OptionSymbol(underlying, price, dir, 0, b.cfg.StrikeStep)
	if err != nil {
		return err
	}
	pos := &Position{
		ID:        uuid.NewString(),
		Direction: dir,
		Entry:     price,
		LongLeg:   atm,
		Qty:       b.cfg.LotSize,
		OpenedAt:  b.now(),
	}

	switch b.mode {
	case ModeOptionBuy:
		pos.Kind = dir.String()
		log.Infof("[ENTRY] %s signal: BUY %s", dir, atm)
		if !b.cfg.DryRun {
			if err := b.order(ctx, atm, model.Buy); err != nil {
				return fmt.Errorf("entry aborted: %w", err)
			}
		}
	default:
		otm, err := options.OptionSymbol(underlying, price, dir, b.cfg.SpreadWidth, b.cfg.StrikeStep)
		if err != nil {
			return err
		}
		pos.Kind = string(strategy.SpreadFor(dir))
		pos.ShortLeg = otm
		log.Infof("[ENTRY] %s: BUY %s / SELL %s", pos.Kind, atm, otm)
		if !b.cfg.DryRun {
			if err := b.order(ctx, atm, model.Buy); err != nil {
				return fmt.Errorf("leg 1 failed, entry aborted: %w", err)
			}
			if err := b.order(ctx, otm, model.Sell); err != nil {
				log.WithField("long_leg", atm).Errorf("[CRITICAL] leg 2 failed, position is unhedged: %v", err)
				pos.ShortLeg = ""
			}
		}
	}

	b.mu.Lock()
	b.pos = pos
	b.risk.Open(dir, price)
	levels := b.risk.Levels()
	b.mu.Unlock()

	log.WithFields(log.Fields{"sl": levels.StopLoss, "tp": levels.TakeProfit}).
		Infof("[ENTRY] opened %s @ %.2f", pos.Kind, price)

	b.publish(TopicTradeOpened, TradeOpened{
		ID:         pos.ID,
		Mode:       b.mode,
		Kind:       pos.Kind,
		Direction:  dir,
		Underlying: underlying,
		Price:      price,
		LongLeg:    pos.LongLeg,
		ShortLeg:   pos.ShortLeg,
		Qty:        pos.Qty,
		DryRun:     b.cfg.DryRun,
		Time:       pos.OpenedAt,
	})
	return nil
}

// CheckExit polls the underlying LTP and closes on a stop or target.
func (b *Bot) CheckExit(ctx context.Context) error {
	b.mu.Lock()
	flat := b.pos == nil
	underlying := b.underlying
	b.mu.Unlock()
	if flat {
		return ErrFlat
	}

	ltp, err := b.broker.LTP(ctx, underlying)
	if err != nil {
		return err
	}

	b.mu.Lock()
	reason, hit := b.risk.Update(ltp)
	b.mu.Unlock()
	if !hit {
		return nil
	}
	return b.Close(ctx, ltp, reason)
}

// CloseNow closes the open position at the current underlying price.
func (b *Bot) CloseNow(ctx context.Context) error {
	b.mu.Lock()
	flat := b.pos == nil
	underlying := b.underlying
	b.mu.Unlock()
	if flat {
		return ErrFlat
	}
	ltp, err := b.broker.LTP(ctx, underlying)
	if err != nil {
		return err
	}
	return b.Close(ctx, ltp, model.ExitManual)
}

// Close unwinds the position: the short leg is bought back before the long
// leg is sold. State resets even when an order fails; failures are
// returned joined.
func (b *Bot) Close(ctx context.Context, price float64, reason model.ExitReason) error {
	b.mu.Lock()
	pos := b.pos
	if pos == nil {
		b.mu.Unlock()
		return ErrFlat
	}
	b.pos = nil
	b.risk.Reset()
	underlying := b.underlying
	b.mu.Unlock()

	log.Infof("[EXIT] closing %s @ %.2f (%s)", pos.Kind, price, reason)

	var errs []error
	if !b.cfg.DryRun {
		if pos.ShortLeg != "" {
			if err := b.order(ctx, pos.ShortLeg, model.Buy); err != nil {
				errs = append(errs, err)
			}
		}
		if err := b.order(ctx, pos.LongLeg, model.Sell); err != nil {
			errs = append(errs, err)
		}
	}

	move := price - pos.Entry
	points := move * pos.Direction.Sign()
	var est float64
	if b.mode == ModeOptionBuy {
		est = b.buy.PnL(points, 1)
	} else {
		est = b.spread.PnLPoints(strategy.SpreadFor(pos.Direction), move, false) * float64(pos.Qty)
	}

	b.publish(TopicTradeClosed, TradeClosed{
		ID:         pos.ID,
		Mode:       b.mode,
		Kind:       pos.Kind,
		Direction:  pos.Direction,
		Underlying: underlying,
		EntryPrice: pos.Entry,
		ExitPrice:  price,
		Points:     points,
		EstPnL:     est,
		Reason:     reason,
		LongLeg:    pos.LongLeg,
		ShortLeg:   pos.ShortLeg,
		DryRun:     b.cfg.DryRun,
		OpenedAt:   pos.OpenedAt,
		Time:       b.now(),
	})

	if len(errs) > 0 {
		return fmt.Errorf("closing %s: %w", pos.ID, errors.Join(errs...))
	}
	return nil
}

func (b *Bot) publish(topic string, event any) {
	if b.bus != nil {
		b.bus.Publish(topic, event)
	}
}

func (b *Bot) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Status{
		Mode:        b.mode,
		DryRun:      b.cfg.DryRun,
		Underlying:  b.underlying,
		InSession:   b.cfg.Sessions.Contains(b.now()),
		LastChecked: b.lastChecked,
	}
	if b.pos != nil {
		p := *b.pos
		st.Position = &p
		st.Levels = b.risk.Levels()
	}
	if !b.lastChecked.IsZero() {
		st.LastSignal = b.lastReading.String()
	}
	return st
}
