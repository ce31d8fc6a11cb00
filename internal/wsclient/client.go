package wsclient

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/model"
)

// Client streams ticks of a fixed symbol list from the OpenAlgo websocket
// and reconnects until its context ends.
type Client struct {
	URL      string
	APIKey   string
	Exchange string
	Symbols  []string
	Mode     int

	Dialer     *websocket.Dialer
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func New(url, apiKey, exchange string, symbols ...string) *Client {
	return &Client{
		URL:        url,
		APIKey:     apiKey,
		Exchange:   exchange,
		Symbols:    symbols,
		Mode:       ModeLTP,
		Dialer:     websocket.DefaultDialer,
		MinBackoff: time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// Run blocks until ctx is done, delivering every tick to handler.
func (c *Client) Run(ctx context.Context, handler func(model.Quote)) error {
	backoff := c.MinBackoff
	for {
		connected, err := c.serve(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = c.MinBackoff
		}
		log.Warnf("[WS] disconnected (%v); reconnecting in %s", err, backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.MaxBackoff {
			backoff = c.MaxBackoff
		}
	}
}

// serve runs one connection; connected reports whether it got past
// authentication.
func (c *Client) serve(ctx context.Context, handler func(model.Quote)) (bool, error) {
	ws, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return false, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-done:
		}
	}()
	defer ws.Close()

	log.Infof("[WS] connected to %s", c.URL)
	if err := authenticate(ws, c.APIKey); err != nil {
		return false, err
	}
	if len(c.Symbols) == 0 {
		return true, errors.New("no symbols to subscribe")
	}
	if err := subscribe(ws, c.Exchange, c.Symbols, c.Mode); err != nil {
		return true, err
	}
	return true, readLoop(ws, handler)
}
