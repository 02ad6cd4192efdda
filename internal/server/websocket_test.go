package server

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notepeel/internal/config"
)

type mockConn struct {
	messages []WebSocketAnalyzeResponse
	failWith error
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	if m.failWith != nil {
		return m.failWith
	}
	if messageType != websocket.TextMessage {
		return errors.New("unexpected message type")
	}
	var resp WebSocketAnalyzeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	m.messages = append(m.messages, resp)
	return nil
}

func TestHandleWebSocketMessage_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name          string
		message       string
		wantMessages  int
		wantErrorType string
		contains      string
	}{
		{"invalid JSON", `{"type":`, 1, "invalid_request", "Failed to parse request"},
		{"wrong type", `{"type":"ocr","text":"x"}`, 1, "invalid_request", "Unsupported request type: ocr"},
		{"empty text", `{"type":"analyze","text":"  "}`, 2, "invalid_request", "empty input"},
		{"unknown profile", `{"type":"analyze","text":"x","profile":"poetry"}`, 2, "invalid_request", "unknown profile"},
		{"unknown format", `{"type":"analyze","text":"x","format":"docx"}`, 2, "invalid_request", "unsupported output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockConn{}
			s.handleWebSocketMessage(conn, []byte(tt.message))

			require.Len(t, conn.messages, tt.wantMessages)
			last := conn.messages[len(conn.messages)-1]
			assert.Equal(t, "error", last.Type)
			assert.Equal(t, "error", last.Status)
			assert.Equal(t, tt.wantErrorType, last.ErrorType)
			assert.Contains(t, last.Error, tt.contains)

			if tt.wantMessages == 2 {
				assert.Equal(t, "processing", conn.messages[0].Status)
				assert.Equal(t, conn.messages[0].RequestID, last.RequestID)
			} else {
				assert.Empty(t, last.RequestID)
			}
		})
	}
}

func TestHandleWebSocketMessage_Success(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockConn{}

	s.handleWebSocketMessage(conn, []byte(`{"type":"analyze","text":"Name: John Smith\n- milk","profile":"lecture-notes","format":"text"}`))

	require.Len(t, conn.messages, 2)
	processing, completed := conn.messages[0], conn.messages[1]
	assert.Equal(t, "analyze_response", processing.Type)
	assert.Equal(t, "processing", processing.Status)
	assert.Len(t, processing.RequestID, 36)

	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, processing.RequestID, completed.RequestID)
	require.NotNil(t, completed.Result)
	assert.True(t, completed.Result.Success)
	assert.Equal(t, "lecture-notes", completed.Result.Profile)
	assert.Equal(t, processing.RequestID, completed.Result.RequestID)
	assert.Equal(t, []string{"- milk"}, completed.Result.Document.BulletPoints)
	assert.Contains(t, completed.Rendered, "Bullet points:\n  - milk")
}

func TestHandleWebSocketMessage_JSONFormatHasNoRendering(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockConn{}

	s.handleWebSocketMessage(conn, []byte(`{"type":"analyze","text":"Name: Ann"}`))

	require.Len(t, conn.messages, 2)
	assert.Empty(t, conn.messages[1].Rendered)
	assert.Equal(t, map[string]string{"Name": "Ann"}, conn.messages[1].Result.Document.KeyValues.Map())
}

func TestHandleWebSocketMessage_WriteFailure(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockConn{failWith: errors.New("broken pipe")}

	assert.NotPanics(t, func() {
		s.handleWebSocketMessage(conn, []byte(`{"type":"analyze","text":"Name: Ann"}`))
	})
	assert.Empty(t, conn.messages)
}

func TestWebSocketEndToEnd(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/analyze"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":    "analyze",
		"text":    "TODO: call Bob\nRoom: 4B",
		"profile": "meeting-notes",
	}))

	read := func() WebSocketAnalyzeResponse {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg WebSocketAnalyzeResponse
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	processing := read()
	assert.Equal(t, "processing", processing.Status)

	completed := read()
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, processing.RequestID, completed.RequestID)
	require.NotNil(t, completed.Result)
	assert.Equal(t, []string{"TODO: call Bob"}, completed.Result.Document.BulletPoints)
	assert.Equal(t, map[string]string{"Room": "4B"}, completed.Result.Document.KeyValues.Map())

	// the connection stays open for further requests
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	assert.Equal(t, "invalid_request", read().ErrorType)
}

func dialAnalyze(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/analyze"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readFinal skips processing updates and returns the next final message.
func readFinal(t *testing.T, conn *websocket.Conn) WebSocketAnalyzeResponse {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg WebSocketAnalyzeResponse
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Status != "processing" {
			return msg
		}
	}
}

func TestWebSocket_MessageOverUploadLimit(t *testing.T) {
	s := newTestServer(t, nil)
	s.maxUploadBytes = 64
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialAnalyze(t, ts)
	require.NoError(t, conn.WriteJSON(map[string]string{
		"type": "analyze",
		"text": strings.Repeat("Name: John Smith\n", 10),
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "oversized message must close the connection")
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		assert.Equal(t, websocket.CloseMessageTooBig, closeErr.Code)
	}
}

func TestWebSocket_MessagesChargeDataQuota(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) {
		c.RateLimit = config.RateLimitConfig{Enabled: true, MaxDataPerDay: 150}
	})
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialAnalyze(t, ts)
	message := map[string]string{"type": "analyze", "text": "Name: John Smith\n" + strings.Repeat("x", 60)}

	require.NoError(t, conn.WriteJSON(message))
	assert.Equal(t, "completed", readFinal(t, conn).Status)
	assert.Positive(t, s.rateLimiter.GetUsage("127.0.0.1").BytesToday)

	require.NoError(t, conn.WriteJSON(message))
	rejected := readFinal(t, conn)
	assert.Equal(t, "error", rejected.Status)
	assert.Equal(t, "rate_limited", rejected.ErrorType)
	assert.Contains(t, rejected.Error, "quota exceeded for data")
}
