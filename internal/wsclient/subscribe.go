package wsclient

import (
	"fmt"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Stream modes of the OpenAlgo feed.
const (
	ModeLTP   = 1
	ModeQuote = 2
	ModeDepth = 3
)

type subscribeRequest struct {
	Action   string `json:"action"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Mode     int    `json:"mode"`
}

func subscribe(ws *websocket.Conn, exchange string, symbols []string, mode int) error {
	for _, sym := range symbols {
		req := subscribeRequest{Action: "subscribe", Symbol: sym, Exchange: exchange, Mode: mode}
		if err := ws.WriteJSON(req); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	log.Infof("[WS] subscribed %d symbols (mode %d)", len(symbols), mode)
	return nil
}
