package feed

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipJSON(t *testing.T, v any) []byte {
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

func TestHuobiDepthFeed_LatestTracksStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))

		tick := map[string]any{
			"ch": "market.solusdt.depth.step0",
			"ts": 1700000000000,
			"tick": map[string]any{
				"bids": [][2]float64{{101, 2}},
				"asks": [][2]float64{{101.2, 1}},
			},
		}
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, gzipJSON(t, tick)))
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := NewHuobiDepthFeed(wsURL, "solusdt", logger)

	_, ok := f.Latest()
	assert.False(t, ok, "no snapshot before the stream delivers")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, ok := f.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)

	snap, ok := f.Latest()
	require.True(t, ok)
	assert.Equal(t, 101.0, snap.BestBid())
	assert.Equal(t, 101.2, snap.BestAsk())
}
