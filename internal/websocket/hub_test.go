package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"vanbiz/internal/config"
	"vanbiz/internal/infrastructure"
	"vanbiz/internal/shared/testutil"
	"vanbiz/pkg/contracts/events"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu      sync.Mutex
	written []int
	frames  [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, messageType)
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) types() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.written...)
}

func startHub(t *testing.T, opts ...HubOption) (*Hub, context.CancelFunc, chan error) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

func newTestClient(hub *Hub) *Client {
	return NewClient(hub, newFakeConn(), "127.0.0.1:5000", "trace-1", config.WebSocketConfig{}, nil)
}

// barrier returns once the hub loop has finished all earlier work.
func barrier(hub *Hub) { hub.Unregister(&Client{}) }

func receive(t *testing.T, c *Client) events.WebSocketMessage {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg events.WebSocketMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return events.WebSocketMessage{}
	}
}

func TestHub_RegisterSendsConnectMessage(t *testing.T) {
	hub, _, _ := startHub(t)
	client := newTestClient(hub)

	require.True(t, hub.Register(client))

	msg := receive(t, client)
	assert.Equal(t, events.MessageTypeConnect, msg.Type)
	assert.Equal(t, "trace-1", msg.TraceID)
	assert.NotEmpty(t, msg.ID)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, client.ID(), data["client_id"])

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub, _, _ := startHub(t)
	clients := []*Client{newTestClient(hub), newTestClient(hub), newTestClient(hub)}
	for _, c := range clients {
		require.True(t, hub.Register(c))
		receive(t, c)
	}

	ctx := infrastructure.WithTraceID(context.Background(), "run-trace")
	hub.BroadcastSnapshot(ctx, events.RunSnapshot{RunID: "run-1", Status: events.StatusRunning, Progress: 40})

	for _, c := range clients {
		msg := receive(t, c)
		assert.Equal(t, events.MessageTypeRunSnapshot, msg.Type)
		assert.Equal(t, "run-trace", msg.TraceID)
		data := msg.Data.(map[string]interface{})
		assert.Equal(t, "run-1", data["run_id"])
		assert.Equal(t, float64(40), data["progress"])
	}
}

func TestHub_ReplaysLatestSnapshot(t *testing.T) {
	hub, _, _ := startHub(t)

	hub.BroadcastSnapshot(context.Background(), events.RunSnapshot{RunID: "old", Status: events.StatusRunning})
	hub.BroadcastSnapshot(context.Background(), events.RunSnapshot{RunID: "new", Status: events.StatusCompleted})
	hub.Broadcast(context.Background(), events.MessageTypeError, map[string]string{"message": "ignored for replay"})

	client := newTestClient(hub)
	require.True(t, hub.Register(client))

	assert.Equal(t, events.MessageTypeConnect, receive(t, client).Type)
	replay := receive(t, client)
	assert.Equal(t, events.MessageTypeRunSnapshot, replay.Type)
	assert.Equal(t, "new", replay.Data.(map[string]interface{})["run_id"])
	assert.Equal(t, true, hub.Stats()["has_snapshot"])
}

func TestHub_DisconnectsSlowClient(t *testing.T) {
	hub, _, _ := startHub(t)
	slow := newTestClient(hub)
	slow.send = make(chan []byte, 1)
	slow.send <- []byte("backlog")

	require.True(t, hub.Register(slow))
	barrier(hub)

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, []byte("backlog"), <-slow.send)
	_, ok := <-slow.send
	assert.False(t, ok, "slow client should be closed")
}

func TestHub_UnregisterUnknownClientIsNoop(t *testing.T) {
	hub, _, _ := startHub(t)
	known := newTestClient(hub)
	require.True(t, hub.Register(known))
	receive(t, known)

	hub.Unregister(newTestClient(hub))
	hub.Unregister(known)

	select {
	case _, ok := <-known.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel, done := startHub(t)
	client := newTestClient(hub)
	require.True(t, hub.Register(client))
	receive(t, client)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, ok := <-client.send
	assert.False(t, ok)
	assert.False(t, hub.Register(newTestClient(hub)))
	hub.Unregister(client)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(nil)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < broadcastQueueSize+10; i++ {
			hub.Broadcast(context.Background(), events.MessageTypeRunSnapshot, i)
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
}

func TestHub_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewHubMetrics(mp.Meter(infrastructure.MeterName))
	require.NoError(t, err)

	hub, _, _ := startHub(t, WithMetrics(m))
	client := newTestClient(hub)
	require.True(t, hub.Register(client))
	receive(t, client)
	hub.Broadcast(context.Background(), events.MessageTypeRunSnapshot, "x")
	receive(t, client)
	barrier(hub)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[metric.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["websocket_connections_total"])
	assert.Equal(t, int64(1), sums["websocket_connections_active"])
	assert.Equal(t, int64(2), sums["websocket_messages_sent_total"])
	assert.Equal(t, int64(1), sums["websocket_broadcasts_total"])
}

func TestClient_WritePumpFlushesAndCloses(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(NewHub(nil), conn, "", "", config.WebSocketConfig{PingPeriod: time.Hour}, nil)

	client.send <- []byte(`{"a":1}`)
	client.send <- []byte(`{"b":2}`)
	close(client.send)

	client.WritePump()

	assert.Equal(t, []int{gws.TextMessage, gws.TextMessage, gws.CloseMessage}, conn.types())
}

func TestHandler_EndToEnd(t *testing.T) {
	hub, _, _ := startHub(t)
	cfg := config.Default().WebSocket
	srv := httptest.NewServer(NewHandler(hub, cfg, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var connect events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&connect))
	assert.Equal(t, events.MessageTypeConnect, connect.Type)

	require.NoError(t, conn.WriteMessage(gws.TextMessage, heartbeat))

	hub.BroadcastSnapshot(context.Background(), events.RunSnapshot{RunID: "run-9", Status: events.StatusCompleted, Progress: 100})

	var snap events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, events.MessageTypeRunSnapshot, snap.Type)
	assert.Equal(t, "run-9", snap.Data.(map[string]interface{})["run_id"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	hub, _, _ := startHub(t)
	srv := httptest.NewServer(NewHandler(hub, config.Default().WebSocket, nil))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}
