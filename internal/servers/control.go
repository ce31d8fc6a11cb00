package servers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/hedger"
	"Spread_Hedger/internal/model"
)

// Controller is the part of the bot the control server drives.
type Controller interface {
	Status() hedger.Status
	CloseNow(ctx context.Context) error
}

// QuoteSource exposes the latest streamed quotes.
type QuoteSource interface {
	Snapshot() map[string]model.Quote
}

type closeRequest struct {
	Seq uint64 `json:"seq"`
}

// Control serves status, manual close and metrics for a running bot.
type Control struct {
	bot     Controller
	quotes  QuoteSource
	lastSeq uint64
}

func NewControl(bot Controller, quotes QuoteSource) *Control {
	return &Control{bot: bot, quotes: quotes}
}

func (c *Control) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", c.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/position/close", c.handleClose).Methods(http.MethodPost)
	r.HandleFunc("/quotes", c.handleQuotes).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (c *Control) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.bot.Status())
}

func (c *Control) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if c.quotes == nil {
		writeJSON(w, http.StatusOK, map[string]model.Quote{})
		return
	}
	writeJSON(w, http.StatusOK, c.quotes.Snapshot())
}

// handleClose closes the open position. Requests carrying a seq at or
// below the last accepted one are acknowledged and ignored.
func (c *Control) handleClose(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	// an empty body, chunked or not, is a close without a seq
	var m closeRequest
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	for {
		prev := atomic.LoadUint64(&c.lastSeq)
		if m.Seq != 0 && m.Seq <= prev {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ignored": "stale_seq"})
			return
		}
		if m.Seq == 0 || atomic.CompareAndSwapUint64(&c.lastSeq, prev, m.Seq) {
			break
		}
	}

	err := c.bot.CloseNow(r.Context())
	switch {
	case errors.Is(err, hedger.ErrFlat):
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": err.Error()})
	case err != nil:
		log.Errorf("[CONTROL] close failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// Serve runs the control server on addr until ctx ends.
func (c *Control) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Handler:           c.Router(),
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("[CONTROL] listening on http://%s (GET /status, POST /position/close, GET /metrics)", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
