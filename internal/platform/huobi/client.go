// Package huobi is the REST and WebSocket client for the Huobi spot
// exchange: signed account/order endpoints, public market depth, and the
// incremental depth stream.
package huobi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// ClientConfig holds connection and credential parameters.
type ClientConfig struct {
	RestHost  string // e.g. "https://api.huobi.pro"
	APIKey    string
	SecretKey string
	// Symbol is the pair in "BASE/QUOTE" form; Huobi wants it lowercased
	// and unseparated ("SOL/USDT" -> "solusdt").
	Symbol string
	// RequestsPerSecond caps REST calls; zero disables limiting.
	RequestsPerSecond float64
}

// Client is the Huobi venue client. Open establishes the HTTP transport and
// Close releases it; the monitor reopens the client every cycle.
type Client struct {
	restHost    string
	host        string // bare hostname, part of the signature payload
	apiKey      string
	secretKey   string
	symbol      string // exchange form, e.g. "solusdt"
	baseSymbol  string
	quoteSymbol string
	limiter     *rate.Limiter
	httpClient  *http.Client
	// accountID is resolved on first balance fetch and reused.
	accountID string
}

// NewClient creates a Huobi client. Open must be called before use.
func NewClient(cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(cfg.RestHost)
	if err != nil {
		return nil, fmt.Errorf("huobi: parse rest host %q: %w", cfg.RestHost, err)
	}
	base, quote, ok := strings.Cut(cfg.Symbol, "/")
	if !ok {
		return nil, fmt.Errorf("huobi: symbol %q is not BASE/QUOTE", cfg.Symbol)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		restHost:    strings.TrimRight(cfg.RestHost, "/"),
		host:        u.Host,
		apiKey:      cfg.APIKey,
		secretKey:   cfg.SecretKey,
		symbol:      strings.ToLower(base + quote),
		baseSymbol:  strings.ToLower(base),
		quoteSymbol: strings.ToLower(quote),
		limiter:     limiter,
	}, nil
}

// Open establishes the HTTP transport.
func (c *Client) Open(ctx context.Context) error {
	c.httpClient = &http.Client{Timeout: 60 * time.Second}
	return nil
}

// Close releases idle connections. The client can be reopened afterwards.
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
	return nil
}

// FetchOrderBook returns a depth snapshot of the configured pair. Huobi
// serves fixed depth sizes (5, 10, 20); depth is clamped to the nearest.
func (c *Client) FetchOrderBook(ctx context.Context, depth int) (domain.DepthSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", c.symbol)
	params.Set("type", "step0")
	params.Set("depth", strconv.Itoa(clampDepth(depth)))

	var resp depthResponse
	if err := c.get(ctx, "/market/depth", params, false, &resp); err != nil {
		return domain.DepthSnapshot{}, fmt.Errorf("huobi: fetch order book: %w", err)
	}
	if resp.Status != "ok" {
		return domain.DepthSnapshot{}, fmt.Errorf("huobi: fetch order book: status %q (%s): %w", resp.Status, resp.ErrMsg, domain.ErrVenueUnavailable)
	}

	snap := domain.DepthSnapshot{
		Symbol:    c.symbol,
		Bids:      toLevels(resp.Tick.Bids),
		Asks:      toLevels(resp.Tick.Asks),
		Timestamp: time.UnixMilli(resp.Ts),
	}
	return snap, nil
}

// FetchBalance returns the free ("trade") balance of the pair's base and
// quote currencies in the spot account.
func (c *Client) FetchBalance(ctx context.Context) (domain.Balance, error) {
	if err := c.ensureAccountID(ctx); err != nil {
		return domain.Balance{}, err
	}

	var resp balanceResponse
	path := "/v1/account/accounts/" + c.accountID + "/balance"
	if err := c.get(ctx, path, url.Values{}, true, &resp); err != nil {
		return domain.Balance{}, fmt.Errorf("huobi: fetch balance: %w", err)
	}
	if resp.Status != "ok" {
		return domain.Balance{}, fmt.Errorf("huobi: fetch balance: status %q (%s): %w", resp.Status, resp.ErrMsg, domain.ErrVenueUnavailable)
	}

	var bal domain.Balance
	for _, entry := range resp.Data.List {
		if entry.Type != "trade" {
			continue
		}
		v, err := strconv.ParseFloat(entry.Balance, 64)
		if err != nil {
			return domain.Balance{}, fmt.Errorf("huobi: parse balance %q for %s: %w", entry.Balance, entry.Currency, err)
		}
		switch entry.Currency {
		case c.baseSymbol:
			bal.Base = v
		case c.quoteSymbol:
			bal.Quote = v
		}
	}
	return bal, nil
}

// LimitBuy places a buy-limit order and returns the order ID.
func (c *Client) LimitBuy(ctx context.Context, amount, price float64) (string, error) {
	return c.placeOrder(ctx, "buy-limit", amount, price)
}

// LimitSell places a sell-limit order and returns the order ID.
func (c *Client) LimitSell(ctx context.Context, amount, price float64) (string, error) {
	return c.placeOrder(ctx, "sell-limit", amount, price)
}

func (c *Client) placeOrder(ctx context.Context, orderType string, amount, price float64) (string, error) {
	if err := c.ensureAccountID(ctx); err != nil {
		return "", err
	}

	body := orderRequest{
		AccountID: c.accountID,
		Symbol:    c.symbol,
		Type:      orderType,
		Amount:    strconv.FormatFloat(amount, 'f', -1, 64),
		Price:     strconv.FormatFloat(price, 'f', -1, 64),
		Source:    "spot-api",
	}

	var resp orderResponse
	if err := c.post(ctx, "/v1/order/orders/place", body, &resp); err != nil {
		return "", fmt.Errorf("huobi: place %s: %w", orderType, err)
	}
	if resp.Status != "ok" {
		return "", fmt.Errorf("huobi: place %s: status %q (%s): %w", orderType, resp.Status, resp.ErrMsg, domain.ErrVenueUnavailable)
	}
	return resp.Data, nil
}

// ensureAccountID resolves and caches the spot account ID.
func (c *Client) ensureAccountID(ctx context.Context) error {
	if c.accountID != "" {
		return nil
	}

	var resp accountsResponse
	if err := c.get(ctx, "/v1/account/accounts", url.Values{}, true, &resp); err != nil {
		return fmt.Errorf("huobi: list accounts: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("huobi: list accounts: status %q (%s): %w", resp.Status, resp.ErrMsg, domain.ErrVenueUnavailable)
	}
	for _, acct := range resp.Data {
		if acct.Type == "spot" && acct.State == "working" {
			c.accountID = strconv.FormatInt(acct.ID, 10)
			return nil
		}
	}
	return fmt.Errorf("huobi: no working spot account: %w", domain.ErrVenueUnavailable)
}

// get performs a GET request, signing it when signed is true, and decodes the
// JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, signed bool, out any) error {
	if signed {
		c.signParams(http.MethodGet, path, params)
	}
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// post performs a signed POST with a JSON body. Huobi puts the signature in
// the query string even for POSTs; only auth parameters are signed.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	params := url.Values{}
	c.signParams(http.MethodPost, path, params)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, params, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	if c.httpClient == nil {
		return fmt.Errorf("client not open: %w", domain.ErrVenueUnavailable)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	reqURL := c.restHost + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrVenueUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s: %w", method, path, resp.StatusCode, string(respBody), domain.ErrVenueUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// clampDepth maps the requested depth to the nearest size Huobi serves.
func clampDepth(depth int) int {
	switch {
	case depth <= 5:
		return 5
	case depth <= 10:
		return 10
	default:
		return 20
	}
}

func toLevels(raw [][2]float64) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, entry := range raw {
		levels = append(levels, domain.PriceLevel{Price: entry[0], Size: entry[1]})
	}
	return levels
}
