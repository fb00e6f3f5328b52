package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxWSMessageSize = 64 * 1024
	wsWriteTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsRequest struct {
	Query string `json:"query"`
}

type wsResponse struct {
	Query  string `json:"query"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Status int    `json:"status"`
}

// handleWS answers queries sent over a WebSocket. Each text frame holds one
// query, either as {"query": "..."} or as plain text, and gets exactly one
// reply frame carrying the complete answer.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws.upgrade_failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxWSMessageSize)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("ws.read_failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		start := time.Now()
		query := parseWSQuery(data)
		resp := wsResponse{Query: query, Status: http.StatusOK}
		answer, err := s.ask(r.Context(), query)
		if err != nil {
			resp.Status = StatusFor(err)
			resp.Error = err.Error()
			log.Error("ws.search_failed", "query", query, "status", resp.Status, "error", err)
		} else {
			resp.Query = answer.Query
			resp.Result = answer.Text
		}
		if s.opts.Recorder != nil {
			s.opts.Recorder.RecordRequest(r.Context(), resp.Status, time.Since(start))
		}

		payload, _ := json.Marshal(resp)
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warn("ws.write_failed", "error", err)
			return
		}
	}
}

func parseWSQuery(data []byte) string {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err == nil {
		return req.Query
	}
	return strings.TrimSpace(string(data))
}
