package huobi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbalab/cexdexarb/internal/domain"
)

func gzipFrame(t *testing.T, v any) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// wsTestServer upgrades the connection and hands it to serve.
func wsTestServer(t *testing.T, serve func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSClient_DepthStream(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		// Expect the subscription request first.
		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "market.solusdt.depth.step0", sub["sub"])

		tick := map[string]any{
			"ch": "market.solusdt.depth.step0",
			"ts": 1700000000000,
			"tick": map[string]any{
				"bids": [][2]float64{{101, 2}, {100.9, 3}},
				"asks": [][2]float64{{101.2, 1}},
			},
		}
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, gzipFrame(t, tick)))

		// Keep the connection up long enough for the client to read.
		time.Sleep(100 * time.Millisecond)
	})

	client := NewWSClient(url, "solusdt")
	snaps := make(chan domain.DepthSnapshot, 1)
	client.OnDepth(func(snap domain.DepthSnapshot) {
		select {
		case snaps <- snap:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, client.Connect(ctx))
	defer client.Close()
	require.NoError(t, client.SubscribeDepth(ctx))

	go func() { _ = client.ReadLoop(ctx) }()

	select {
	case snap := <-snaps:
		assert.Equal(t, "solusdt", snap.Symbol)
		require.Len(t, snap.Bids, 2)
		assert.Equal(t, 101.0, snap.BestBid())
		assert.Equal(t, 101.2, snap.BestAsk())
		assert.Equal(t, time.UnixMilli(1700000000000), snap.Timestamp)
	case <-ctx.Done():
		t.Fatal("no depth snapshot received")
	}
}

func TestWSClient_AnswersPing(t *testing.T) {
	pongs := make(chan int64, 1)
	url := wsTestServer(t, func(conn *websocket.Conn) {
		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))

		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, gzipFrame(t, map[string]int64{"ping": 1700000001234})))

		var pong map[string]int64
		if err := conn.ReadJSON(&pong); err == nil {
			pongs <- pong["pong"]
		}
	})

	client := NewWSClient(url, "solusdt")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, client.Connect(ctx))
	defer client.Close()
	require.NoError(t, client.SubscribeDepth(ctx))

	go func() { _ = client.ReadLoop(ctx) }()

	select {
	case pong := <-pongs:
		// The pong must echo the ping's timestamp.
		assert.Equal(t, int64(1700000001234), pong)
	case <-ctx.Done():
		t.Fatal("no pong received")
	}
}

func TestGunzip_RejectsPlainFrame(t *testing.T) {
	_, err := gunzip([]byte(`{"ping":1}`))
	assert.Error(t, err)
}
