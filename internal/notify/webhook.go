package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"Spread_Hedger/internal/hedger"
	"Spread_Hedger/internal/model"
)

// TradeNotice is the JSON body posted to the webhook.
type TradeNotice struct {
	Type       string           `json:"type"` // "OPEN" | "CLOSE"
	TradeID    string           `json:"trade_id"`
	Strategy   string           `json:"strategy"`
	Kind       string           `json:"kind"`
	Underlying string           `json:"underlying"`
	LongLeg    string           `json:"long_leg"`
	ShortLeg   string           `json:"short_leg,omitempty"`
	Price      float64          `json:"price"`
	Points     float64          `json:"points,omitempty"`
	EstPnL     float64          `json:"est_pnl,omitempty"`
	Reason     model.ExitReason `json:"reason,omitempty"`
	DryRun     bool             `json:"dry_run"`
	TsMs       int64            `json:"ts_ms"`
}

// Webhook posts trade notices as JSON; Send wraps free text in a notice.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, client: &http.Client{Timeout: 2 * time.Second}}
}

// NewWebhookFromEnv returns nil when MAIN_MARKET_NOTIFY_URL is unset.
func NewWebhookFromEnv() *Webhook {
	url := os.Getenv("MAIN_MARKET_NOTIFY_URL")
	if url == "" {
		return nil
	}
	return NewWebhook(url)
}

func (w *Webhook) Post(ctx context.Context, n TradeNotice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook non-2xx: %s", resp.Status)
	}
	return nil
}

func (w *Webhook) SendNotice(ctx context.Context, n TradeNotice) error {
	return w.Post(ctx, n)
}

func (w *Webhook) Send(ctx context.Context, text string) error {
	return w.Post(ctx, TradeNotice{Type: "TEXT", Kind: text, TsMs: time.Now().UnixMilli()})
}

func OpenNotice(e hedger.TradeOpened) TradeNotice {
	return TradeNotice{
		Type:       "OPEN",
		TradeID:    e.ID,
		Strategy:   string(e.Mode),
		Kind:       e.Kind,
		Underlying: e.Underlying,
		LongLeg:    e.LongLeg,
		ShortLeg:   e.ShortLeg,
		Price:      e.Price,
		DryRun:     e.DryRun,
		TsMs:       e.Time.UnixMilli(),
	}
}

func CloseNotice(e hedger.TradeClosed) TradeNotice {
	return TradeNotice{
		Type:       "CLOSE",
		TradeID:    e.ID,
		Strategy:   string(e.Mode),
		Kind:       e.Kind,
		Underlying: e.Underlying,
		LongLeg:    e.LongLeg,
		ShortLeg:   e.ShortLeg,
		Price:      e.ExitPrice,
		Points:     e.Points,
		EstPnL:     e.EstPnL,
		Reason:     e.Reason,
		DryRun:     e.DryRun,
		TsMs:       e.Time.UnixMilli(),
	}
}
