package openalgo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// APIError is a response whose status is not "success".
type APIError struct {
	Endpoint   string
	HTTPStatus int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openalgo %s: status %q (http %d)", e.Endpoint, e.Status, e.HTTPStatus)
	}
	return fmt.Sprintf("openalgo %s: %s (http %d)", e.Endpoint, e.Message, e.HTTPStatus)
}

// Client talks to the OpenAlgo REST gateway. Every call carries the API key
// in its JSON body and waits on a shared rate limiter.
type Client struct {
	host     string
	apiKey   string
	exchange string
	prefix   string
	http     *http.Client
	limiter  *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outgoing requests to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithMarket sets the exchange and futures symbol prefix used by the
// Broker helpers (LTP, Candles, ResolveFuture).
func WithMarket(exchange, prefix string) Option {
	return func(c *Client) {
		c.exchange = exchange
		c.prefix = prefix
	}
}

func New(host, apiKey string, opts ...Option) *Client {
	c := &Client{
		host:     strings.TrimRight(host, "/"),
		apiKey:   apiKey,
		exchange: "NFO",
		prefix:   "NIFTY",
		http:     &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	OrderID string          `json:"orderid"`
}

// post sends payload (plus apikey) to /api/v1/<endpoint> and returns the
// decoded envelope of a successful response.
func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["apikey"] = c.apiKey

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}

	url := c.host + "/api/v1/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openalgo %s request failed: %w", endpoint, err)
	}
	defer res.Body.Close()

	rawBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		log.WithField("endpoint", endpoint).Debugf("[OPENALGO] raw response: %s", string(rawBody))
		return nil, &APIError{Endpoint: endpoint, HTTPStatus: res.StatusCode, Message: "undecodable response"}
	}
	if !strings.EqualFold(env.Status, "success") || res.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Endpoint: endpoint, HTTPStatus: res.StatusCode, Status: env.Status, Message: env.Message}
	}
	return &env, nil
}
