package wsclient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type authRequest struct {
	Action string `json:"action"`
	APIKey string `json:"api_key"`
}

type authResponse struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// authenticate sends the API key and blocks until the auth reply arrives.
func authenticate(ws *websocket.Conn, apiKey string) error {
	if apiKey == "" {
		log.Warn("[WS] empty API key; the server will likely refuse the stream")
	}
	if err := ws.WriteJSON(authRequest{Action: "authenticate", APIKey: apiKey}); err != nil {
		return fmt.Errorf("auth request send failed: %w", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer ws.SetReadDeadline(time.Time{})
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading auth response: %w", err)
		}
		var resp authResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			log.Warnf("[WS] malformed auth response: %s", string(msg))
			continue
		}
		if resp.Type != "auth" {
			continue
		}
		if resp.Status != "success" {
			return fmt.Errorf("authentication failed: %s", resp.Message)
		}
		log.Info("[WS] authentication succeeded")
		return nil
	}
}
