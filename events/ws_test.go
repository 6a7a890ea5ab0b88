package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func TestServeWS_DeliversBroadcasts(t *testing.T) {
	h := NewHub()
	defer h.Close()

	conn, cleanup := dialHub(t, h)
	defer cleanup()

	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Broadcast(context.Background(), TaskDeleted(5))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.JSONEq(t, `{"type":"task_deleted","data":{"id":5}}`, string(data))
}

func TestServeWS_LogsConnectionID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewHub(WithLogger(zap.New(core)), WithIDGenerator(&sequence{}))
	defer h.Close()

	conn, cleanup := dialHub(t, h)
	defer cleanup()
	require.Eventually(t, func() bool {
		return logs.FilterMessage("websocket connected").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	connected := logs.FilterMessage("websocket connected").All()
	assert.Equal(t, uint64(100), connected[0].ContextMap()["conn_id"])

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("websocket disconnected").FilterField(zap.Uint64("conn_id", 100)).Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_UnregistersOnClientClose(t *testing.T) {
	h := NewHub()
	defer h.Close()

	conn, cleanup := dialHub(t, h)
	defer cleanup()
	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return h.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_IgnoresClientMessages(t *testing.T) {
	h := NewHub()
	defer h.Close()

	conn, cleanup := dialHub(t, h)
	defer cleanup()
	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"server"}`)))
	h.Broadcast(context.Background(), WorkflowDeleted(1))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "workflow_deleted")
	assert.Equal(t, 1, h.Len())
}

func TestServeWS_RejectsPlainHTTP(t *testing.T) {
	h := NewHub()
	defer h.Close()

	rec := httptest.NewRecorder()
	h.ServeWS(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, h.Len())
}
