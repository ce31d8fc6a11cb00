package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NoticeSender is a Notifier that renders trade notices itself rather than
// taking the plain text summary.
type NoticeSender interface {
	Notifier
	SendNotice(ctx context.Context, n TradeNotice) error
}

// Telegram parse modes. ParsePlain sends text as is.
const (
	ParsePlain = ""
	ParseHTML  = "HTML"
)

// Telegram posts to a chat through the Bot API.
type Telegram struct {
	token     string
	chatID    int64
	threadID  int64 // forum topic, 0 for the main chat
	parseMode string
	silent    bool
	client    *http.Client
	apiBase   string
}

type TelegramOption func(*Telegram)

func WithParseMode(mode string) TelegramOption {
	return func(t *Telegram) { t.parseMode = mode }
}

// WithSilent delivers without a notification sound.
func WithSilent(silent bool) TelegramOption {
	return func(t *Telegram) { t.silent = silent }
}

func WithThread(id int64) TelegramOption {
	return func(t *Telegram) { t.threadID = id }
}

func WithAPIBase(base string) TelegramOption {
	return func(t *Telegram) { t.apiBase = strings.TrimRight(base, "/") }
}

func NewTelegram(token string, chatID int64, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		token:     token,
		chatID:    chatID,
		parseMode: ParseHTML,
		client:    &http.Client{Timeout: 3 * time.Second},
		apiBase:   "https://api.telegram.org",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTelegramFromEnv reads TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID, falling
// back to a .env file. TELEGRAM_PARSE_MODE (html or plain), TELEGRAM_SILENT
// and TELEGRAM_THREAD_ID are optional.
func NewTelegramFromEnv() (*Telegram, error) {
	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" || os.Getenv("TELEGRAM_CHAT_ID") == "" {
		_ = godotenv.Load() // never overrides what is already set
	}
	tok, cid := os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID")
	if tok == "" || cid == "" {
		return nil, fmt.Errorf("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
	}

	chatID, err := strconv.ParseInt(cid, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	var opts []TelegramOption
	switch mode := strings.ToLower(os.Getenv("TELEGRAM_PARSE_MODE")); mode {
	case "", "html":
	case "plain", "none":
		opts = append(opts, WithParseMode(ParsePlain))
	default:
		return nil, fmt.Errorf("invalid TELEGRAM_PARSE_MODE %q", mode)
	}
	if v := os.Getenv("TELEGRAM_SILENT"); v != "" {
		silent, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_SILENT: %w", err)
		}
		opts = append(opts, WithSilent(silent))
	}
	if v := os.Getenv("TELEGRAM_THREAD_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_THREAD_ID: %w", err)
		}
		opts = append(opts, WithThread(id))
	}
	return NewTelegram(tok, chatID, opts...), nil
}

// Send delivers free text, escaped when the chat parses HTML.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t.parseMode == ParseHTML {
		text = html.EscapeString(text)
	}
	return t.sendMessage(ctx, text)
}

// SendNotice renders a trade notice with bold headers and monospaced legs.
func (t *Telegram) SendNotice(ctx context.Context, n TradeNotice) error {
	return t.sendMessage(ctx, t.render(n))
}

func (t *Telegram) render(n TradeNotice) string {
	esc, bold, code := func(s string) string { return s }, fmt.Sprint, fmt.Sprint
	if t.parseMode == ParseHTML {
		esc = html.EscapeString
		bold = func(a ...any) string { return "<b>" + html.EscapeString(fmt.Sprint(a...)) + "</b>" }
		code = func(a ...any) string { return "<code>" + html.EscapeString(fmt.Sprint(a...)) + "</code>" }
	}

	var b strings.Builder
	switch n.Type {
	case "OPEN":
		fmt.Fprintf(&b, "%s %s @ %.2f\n", bold("OPEN ", n.Kind), esc(n.Underlying), n.Price)
		fmt.Fprintf(&b, "BUY %s\n", code(n.LongLeg))
		if n.ShortLeg != "" {
			fmt.Fprintf(&b, "SELL %s\n", code(n.ShortLeg))
		}
	case "CLOSE":
		fmt.Fprintf(&b, "%s @ %.2f (%s)\n", bold("CLOSE ", n.Kind), n.Price, esc(string(n.Reason)))
		fmt.Fprintf(&b, "points %s est pnl %+.2f\n", bold(fmt.Sprintf("%+.2f", n.Points)), n.EstPnL)
	default:
		b.WriteString(esc(n.Kind) + "\n")
	}
	if n.Strategy != "" {
		fmt.Fprintf(&b, "strategy %s\n", esc(n.Strategy))
	}
	if n.DryRun {
		b.WriteString("(dry run)")
	}
	return strings.TrimRight(b.String(), "\n")
}

type telegramReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(t.chatID, 10))
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")
	if t.parseMode != ParsePlain {
		form.Set("parse_mode", t.parseMode)
	}
	if t.silent {
		form.Set("disable_notification", "true")
	}
	if t.threadID != 0 {
		form.Set("message_thread_id", strconv.FormatInt(t.threadID, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token),
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var reply telegramReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		reply.OK, reply.Description = true, strings.TrimSpace(string(raw))
	}
	switch {
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("telegram sendMessage failed: %d %s", resp.StatusCode, reply.Description)
	case !reply.OK:
		return fmt.Errorf("telegram sendMessage rejected: %s", reply.Description)
	}
	return nil
}
