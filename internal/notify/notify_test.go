package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Spread_Hedger/internal/hedger"
	"Spread_Hedger/internal/model"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

var opened = hedger.TradeOpened{
	ID: "t1", Mode: hedger.ModeDebitSpread, Kind: "BULL_SPREAD", Direction: model.Long,
	Underlying: "NIFTY30DEC25FUT", Price: 26012,
	LongLeg: "NIFTY30DEC2526000CE", ShortLeg: "NIFTY30DEC2526200CE", Qty: 75,
	Time: time.Date(2025, time.December, 10, 10, 0, 2, 0, time.UTC),
}

var closed = hedger.TradeClosed{
	ID: "t1", Mode: hedger.ModeDebitSpread, Kind: "BULL_SPREAD", Direction: model.Long,
	EntryPrice: 26012, ExitPrice: 26062, Points: 50, EstPnL: 712.5, Reason: model.ExitTakeProfit,
	Time: time.Date(2025, time.December, 10, 10, 30, 0, 0, time.UTC),
}

// telegramServer records the sendMessage forms it receives.
func telegramServer(t *testing.T, reply string) (*httptest.Server, func() []url.Values) {
	var mu sync.Mutex
	var forms []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		mu.Lock()
		forms = append(forms, r.PostForm)
		mu.Unlock()
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []url.Values {
		mu.Lock()
		defer mu.Unlock()
		return append([]url.Values(nil), forms...)
	}
}

func TestTelegramSend(t *testing.T) {
	srv, forms := telegramServer(t, `{"ok":true}`)

	tg := NewTelegram("TOKEN", 42, WithAPIBase(srv.URL+"/"))
	require.NoError(t, tg.Send(context.Background(), "spread <leg> & hedge"))
	got := forms()
	require.Len(t, got, 1)
	assert.Equal(t, "42", got[0].Get("chat_id"))
	assert.Equal(t, "HTML", got[0].Get("parse_mode"))
	assert.Equal(t, "spread &lt;leg&gt; &amp; hedge", got[0].Get("text"))
	assert.Equal(t, "true", got[0].Get("disable_web_page_preview"))
	assert.Empty(t, got[0].Get("disable_notification"))
	assert.Empty(t, got[0].Get("message_thread_id"))
}

func TestTelegramOptions(t *testing.T) {
	srv, forms := telegramServer(t, `{"ok":true}`)

	tg := NewTelegram("TOKEN", 42, WithAPIBase(srv.URL), WithParseMode(ParsePlain), WithSilent(true), WithThread(7))
	require.NoError(t, tg.Send(context.Background(), "a < b"))
	got := forms()
	require.Len(t, got, 1)
	assert.Equal(t, "a < b", got[0].Get("text"), "plain text is not escaped")
	_, set := got[0]["parse_mode"]
	assert.False(t, set)
	assert.Equal(t, "true", got[0].Get("disable_notification"))
	assert.Equal(t, "7", got[0].Get("message_thread_id"))
}

func TestTelegramSendNotice(t *testing.T) {
	srv, forms := telegramServer(t, `{"ok":true}`)
	tg := NewTelegram("TOKEN", 42, WithAPIBase(srv.URL))

	require.NoError(t, tg.SendNotice(context.Background(), OpenNotice(opened)))
	closeNotice := CloseNotice(closed)
	closeNotice.DryRun = true
	require.NoError(t, tg.SendNotice(context.Background(), closeNotice))

	got := forms()
	require.Len(t, got, 2)
	assert.Equal(t, "<b>OPEN BULL_SPREAD</b> NIFTY30DEC25FUT @ 26012.00\n"+
		"BUY <code>NIFTY30DEC2526000CE</code>\n"+
		"SELL <code>NIFTY30DEC2526200CE</code>\n"+
		"strategy debit_spread", got[0].Get("text"))
	assert.Equal(t, "<b>CLOSE BULL_SPREAD</b> @ 26062.00 (TAKE PROFIT)\n"+
		"points <b>+50.00</b> est pnl +712.50\n"+
		"strategy debit_spread\n"+
		"(dry run)", got[1].Get("text"))

	plain := NewTelegram("TOKEN", 42, WithAPIBase(srv.URL), WithParseMode(ParsePlain))
	require.NoError(t, plain.SendNotice(context.Background(), OpenNotice(opened)))
	assert.NotContains(t, forms()[2].Get("text"), "<b>")
}

func TestTelegramError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegram("TOKEN", 42, WithAPIBase(srv.URL))
	assert.ErrorContains(t, tg.Send(context.Background(), "hello"), "chat not found")
}

func TestTelegramRejectedWithOK200(t *testing.T) {
	srv, _ := telegramServer(t, `{"ok":false,"description":"Bad Request: can't parse entities"}`)
	tg := NewTelegram("TOKEN", 42, WithAPIBase(srv.URL))
	assert.ErrorContains(t, tg.Send(context.Background(), "hello"), "can't parse entities")
}

func TestTelegramFromEnvRequiresVars(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	_, err := NewTelegramFromEnv()
	assert.Error(t, err)

	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "abc")
	_, err = NewTelegramFromEnv()
	assert.Error(t, err)
}

func TestTelegramFromEnvOptions(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")
	t.Setenv("TELEGRAM_PARSE_MODE", "plain")
	t.Setenv("TELEGRAM_SILENT", "true")
	t.Setenv("TELEGRAM_THREAD_ID", "9")

	tg, err := NewTelegramFromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(-1001), tg.chatID)
	assert.Equal(t, ParsePlain, tg.parseMode)
	assert.True(t, tg.silent)
	assert.Equal(t, int64(9), tg.threadID)

	t.Setenv("TELEGRAM_PARSE_MODE", "markdown")
	_, err = NewTelegramFromEnv()
	assert.ErrorContains(t, err, "TELEGRAM_PARSE_MODE")
}

func TestFormat(t *testing.T) {
	msg := FormatOpened(opened)
	assert.Contains(t, msg, "BUY  NIFTY30DEC2526000CE x75")
	assert.Contains(t, msg, "SELL NIFTY30DEC2526200CE x75")

	unhedged := opened
	unhedged.ShortLeg = ""
	assert.Contains(t, FormatOpened(unhedged), "hedge leg missing")

	assert.Contains(t, FormatClosed(closed), "points=+50.00 est_pnl=+712.50")
}

func TestSubscribeDeliversToAllNotifiers(t *testing.T) {
	var mu sync.Mutex
	var notices []TradeNotice
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n TradeNotice
		require.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		mu.Lock()
		notices = append(notices, n)
		mu.Unlock()
	}))
	defer srv.Close()

	bus := EventBus.New()
	rec := &recorder{}
	require.NoError(t, Subscribe(bus, rec, NewWebhook(srv.URL)))

	bus.Publish(hedger.TopicTradeOpened, opened)
	bus.Publish(hedger.TopicTradeClosed, closed)
	bus.WaitAsync()

	rec.mu.Lock()
	assert.Len(t, rec.texts, 2)
	rec.mu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notices, 2)
	byType := map[string]TradeNotice{}
	for _, n := range notices {
		byType[n.Type] = n
	}
	assert.Equal(t, "NIFTY30DEC2526200CE", byType["OPEN"].ShortLeg)
	assert.Equal(t, model.ExitTakeProfit, byType["CLOSE"].Reason)
	assert.Equal(t, 712.5, byType["CLOSE"].EstPnL)
}

func TestWebhookFromEnv(t *testing.T) {
	t.Setenv("MAIN_MARKET_NOTIFY_URL", "")
	assert.Nil(t, NewWebhookFromEnv())
	t.Setenv("MAIN_MARKET_NOTIFY_URL", "http://127.0.0.1:1/notify")
	assert.NotNil(t, NewWebhookFromEnv())
}

func TestSubscribeRoutesNoticesToTelegram(t *testing.T) {
	srv, forms := telegramServer(t, `{"ok":true}`)

	bus := EventBus.New()
	require.NoError(t, Subscribe(bus, NewTelegram("TOKEN", 42, WithAPIBase(srv.URL))))
	bus.Publish(hedger.TopicTradeOpened, opened)
	bus.WaitAsync()

	got := forms()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Get("text"), "<code>NIFTY30DEC2526200CE</code>")
}
