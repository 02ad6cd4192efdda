package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/notepeel/internal/render"
	"github.com/MeKo-Tech/notepeel/internal/source"
)

const (
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origins are governed by the CORS setting, not the upgrader.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WebSocketAnalyzeRequest is a client message on /ws/analyze.
type WebSocketAnalyzeRequest struct {
	Type string `json:"type"` // "analyze"
	AnalyzeRequest
}

// WebSocketAnalyzeResponse is a server message on /ws/analyze.
type WebSocketAnalyzeResponse struct {
	Type      string           `json:"type"`
	Status    string           `json:"status"` // "processing", "completed", "error"
	Result    *AnalyzeResponse `json:"result,omitempty"`
	Rendered  string           `json:"rendered,omitempty"` // set when a non-JSON format was requested
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"` // "invalid_request", "processing_error", "rate_limited"
	RequestID string           `json:"request_id,omitempty"`
}

// WebSocketConnWriter is the part of a connection responses are written to.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// analyzeWebSocketHandler upgrades the connection and serves analysis
// requests until the client goes away.
func (s *Server) analyzeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn, getClientIP(r))
}

// handleWebSocketConnection reads messages no larger than the upload limit.
// With rate limiting on, every message counts as a request and its size is
// charged to the client's daily data quota.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn, clientID string) {
	if s.maxUploadBytes > 0 {
		conn.SetReadLimit(s.maxUploadBytes)
	}
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				slog.Warn("WebSocket message exceeds upload limit", "limit_bytes", s.maxUploadBytes, "client", clientID)
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket closed unexpectedly", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if messageType != websocket.TextMessage {
			continue
		}
		if s.rateLimiter != nil {
			if err := s.rateLimiter.CheckRateLimit(clientID, int64(len(data))); err != nil {
				recordRateLimitHit(err)
				sendWebSocketError(conn, "", "rate_limited", err.Error())
				continue
			}
		}
		s.handleWebSocketMessage(conn, data)
	}
}

// handleWebSocketMessage answers one request with a processing message
// followed by a completed or error message, all carrying the same request id.
func (s *Server) handleWebSocketMessage(conn WebSocketConnWriter, data []byte) {
	var req WebSocketAnalyzeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.Type != "analyze" {
		sendWebSocketError(conn, "", "invalid_request", "Unsupported request type: "+req.Type)
		return
	}

	requestID := uuid.NewString()
	sendWebSocketResponse(conn, WebSocketAnalyzeResponse{Type: "analyze_response", Status: "processing", RequestID: requestID})

	start := time.Now()
	in, err := source.FromParts(req.Text, req.Layout)
	if err != nil {
		analysisRequestsTotal.WithLabelValues("websocket", "error").Inc()
		sendWebSocketError(conn, requestID, "invalid_request", err.Error())
		return
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		analysisRequestsTotal.WithLabelValues("websocket", "error").Inc()
		sendWebSocketError(conn, requestID, "invalid_request", err.Error())
		return
	}
	doc, p, err := s.analyze(in, req.Profile)
	if err != nil {
		analysisRequestsTotal.WithLabelValues("websocket", "error").Inc()
		sendWebSocketError(conn, requestID, "invalid_request", err.Error())
		return
	}

	var rendered strings.Builder
	if format != render.JSON {
		if err := render.Render(&rendered, doc, format); err != nil {
			analysisRequestsTotal.WithLabelValues("websocket", "error").Inc()
			sendWebSocketError(conn, requestID, "processing_error", fmt.Sprintf("rendering failed: %v", err))
			return
		}
	}
	elapsed := time.Since(start)
	analysisRequestsTotal.WithLabelValues("websocket", "success").Inc()
	analysisDuration.WithLabelValues("websocket").Observe(elapsed.Seconds())

	sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
		Type:   "analyze_response",
		Status: "completed",
		Result: &AnalyzeResponse{
			Success:      true,
			RequestID:    requestID,
			Profile:      p.Name(),
			RawText:      in.Text,
			Document:     doc,
			ProcessingMS: float64(elapsed.Microseconds()) / 1000,
		},
		Rendered:  rendered.String(),
		RequestID: requestID,
	})
}

func sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketAnalyzeResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
