package huobi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// DepthHandler receives each depth snapshot from the stream.
type DepthHandler func(snap domain.DepthSnapshot)

// WSClient streams market depth from the Huobi WebSocket endpoint. Frames
// are gzip-compressed; the server's ping messages must be answered with a
// matching pong or the connection is dropped.
type WSClient struct {
	wsHost  string
	symbol  string
	conn    *websocket.Conn
	onDepth DepthHandler
}

// NewWSClient creates a stream client for the given exchange-form symbol
// (e.g. "solusdt").
func NewWSClient(wsHost, symbol string) *WSClient {
	return &WSClient{wsHost: wsHost, symbol: strings.ToLower(symbol)}
}

// OnDepth registers the snapshot handler. Must be called before Run.
func (w *WSClient) OnDepth(h DepthHandler) {
	w.onDepth = h
}

// Connect dials the endpoint.
func (w *WSClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsHost, nil)
	if err != nil {
		return fmt.Errorf("huobi ws: dial %s: %w", w.wsHost, err)
	}
	w.conn = conn
	return nil
}

// SubscribeDepth subscribes to the full depth channel for the symbol.
func (w *WSClient) SubscribeDepth(ctx context.Context) error {
	sub := map[string]string{
		"sub": "market." + w.symbol + ".depth.step0",
		"id":  "arbbot-depth",
	}
	if err := w.conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("huobi ws: subscribe depth: %w", err)
	}
	return nil
}

// ReadLoop reads frames until the connection breaks or ctx is cancelled,
// dispatching snapshots to the registered handler and answering pings.
func (w *WSClient) ReadLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, frame, err := w.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("huobi ws: read: %w", err)
		}

		payload, err := gunzip(frame)
		if err != nil {
			return fmt.Errorf("huobi ws: decompress frame: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("huobi ws: decode frame: %w", err)
		}

		switch {
		case msg.Ping != 0:
			if err := w.conn.WriteJSON(map[string]int64{"pong": msg.Ping}); err != nil {
				return fmt.Errorf("huobi ws: pong: %w", err)
			}
		case msg.Tick != nil && w.onDepth != nil:
			w.onDepth(domain.DepthSnapshot{
				Symbol:    w.symbol,
				Bids:      toLevels(msg.Tick.Bids),
				Asks:      toLevels(msg.Tick.Asks),
				Timestamp: time.UnixMilli(msg.Ts),
			})
		}
	}
}

// Close tears down the connection.
func (w *WSClient) Close() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

// wsMessage is the union of frame shapes on the market stream.
type wsMessage struct {
	Ping   int64  `json:"ping"`
	Ch     string `json:"ch"`
	Ts     int64  `json:"ts"`
	Status string `json:"status"`
	Tick   *struct {
		Bids [][2]float64 `json:"bids"`
		Asks [][2]float64 `json:"asks"`
	} `json:"tick"`
}

func gunzip(frame []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
