package wsclient

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/model"
)

const (
	pongWait   = 30 * time.Second
	pingPeriod = 10 * time.Second
)

type marketData struct {
	Type     string `json:"type"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Data     struct {
		LTP       float64 `json:"ltp"`
		PrevClose float64 `json:"prev_close"`
		OI        float64 `json:"oi"`
		Bid       float64 `json:"bid"`
		Ask       float64 `json:"ask"`
		Timestamp int64   `json:"timestamp"`
	} `json:"data"`
}

// parseTick decodes a market_data frame; ok is false for acks and other
// message types.
func parseTick(raw []byte) (model.Quote, bool) {
	var m marketData
	if err := json.Unmarshal(raw, &m); err != nil {
		log.Warnf("[WS] malformed message: %s", string(raw))
		return model.Quote{}, false
	}
	if m.Type != "market_data" || m.Symbol == "" {
		return model.Quote{}, false
	}
	ts := time.Now()
	if m.Data.Timestamp > 0 {
		if m.Data.Timestamp > 1e12 {
			ts = time.UnixMilli(m.Data.Timestamp)
		} else {
			ts = time.Unix(m.Data.Timestamp, 0)
		}
	}
	return model.Quote{
		Symbol:    m.Symbol,
		LTP:       m.Data.LTP,
		PrevClose: m.Data.PrevClose,
		OI:        m.Data.OI,
		Bid:       m.Data.Bid,
		Ask:       m.Data.Ask,
		Time:      ts,
	}, true
}

// readLoop dispatches ticks to handler until the connection fails. A
// pinger keeps the read deadline moving while the server answers pongs.
func readLoop(ws *websocket.Conn, handler func(model.Quote)) error {
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					log.Warnf("[WS] ping error: %v", err)
					return
				}
			}
		}
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if q, ok := parseTick(raw); ok {
			handler(q)
		}
	}
}
