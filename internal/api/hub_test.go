package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(hub.Subscribe))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a moment to register the connection.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.conns) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(ProgressEvent{JobID: "j1", State: JobRunning, RowsDone: 5, RowsTotal: 10, Percent: 50})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev ProgressEvent
	require.NoError(t, conn.ReadJSON(&ev))

	assert.Equal(t, "j1", ev.JobID)
	assert.Equal(t, JobRunning, ev.State)
	assert.Equal(t, 50.0, ev.Percent)
}

func TestHubDropsDeadConnections(t *testing.T) {
	hub := NewHub()

	srv := httptest.NewServer(http.HandlerFunc(hub.Subscribe))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	conn.Close()

	// Broadcasting to a closed connection must evict it.
	assert.Eventually(t, func() bool {
		hub.Broadcast(ProgressEvent{JobID: "j"})
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.conns) == 0
	}, 2*time.Second, 20*time.Millisecond)
}
