package raydium

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
)

// DocumentCache caches the registry document between runs. Implemented by
// the redis cache; nil disables caching.
type DocumentCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

const registryCacheKey = "raydium:registry:liquidity"

// Registry resolves pools from the Raydium liquidity registry, an HTTP
// service serving one large JSON document listing every official and
// community pool. It is consumed once at startup, not in the hot loop.
type Registry struct {
	url        string
	cache      DocumentCache
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRegistry creates a registry client. cache may be nil.
func NewRegistry(url string, cache DocumentCache, logger *slog.Logger) *Registry {
	return &Registry{
		url:        url,
		cache:      cache,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger.With(slog.String("component", "raydium_registry")),
	}
}

// registryPool is one pool entry in the registry document.
type registryPool struct {
	ID               string `json:"id"`
	BaseMint         string `json:"baseMint"`
	QuoteMint        string `json:"quoteMint"`
	LpMint           string `json:"lpMint"`
	BaseDecimals     int    `json:"baseDecimals"`
	QuoteDecimals    int    `json:"quoteDecimals"`
	Authority        string `json:"authority"`
	OpenOrders       string `json:"openOrders"`
	TargetOrders     string `json:"targetOrders"`
	BaseVault        string `json:"baseVault"`
	QuoteVault       string `json:"quoteVault"`
	MarketID         string `json:"marketId"`
	MarketAuthority  string `json:"marketAuthority"`
	MarketBaseVault  string `json:"marketBaseVault"`
	MarketQuoteVault string `json:"marketQuoteVault"`
	MarketBids       string `json:"marketBids"`
	MarketAsks       string `json:"marketAsks"`
	MarketEventQueue string `json:"marketEventQueue"`
}

// registryDoc splits pools into Raydium-curated and community-listed sets.
type registryDoc struct {
	Official   []registryPool `json:"official"`
	UnOfficial []registryPool `json:"unOfficial"`
}

// ResolvePoolID returns the pool ID of the first pool whose base mint
// matches baseMint.
func (r *Registry) ResolvePoolID(ctx context.Context, baseMint string) (string, error) {
	doc, err := r.fetch(ctx)
	if err != nil {
		return "", err
	}
	for _, pool := range doc.all() {
		if pool.BaseMint == baseMint {
			return pool.ID, nil
		}
	}
	return "", fmt.Errorf("raydium: no pool for base mint %s", baseMint)
}

// FetchPoolKeys returns the full account set for poolID.
func (r *Registry) FetchPoolKeys(ctx context.Context, poolID string) (PoolKeys, error) {
	doc, err := r.fetch(ctx)
	if err != nil {
		return PoolKeys{}, err
	}
	for _, pool := range doc.all() {
		if pool.ID == poolID {
			return pool.keys()
		}
	}
	return PoolKeys{}, fmt.Errorf("raydium: pool %s not found in registry", poolID)
}

func (d registryDoc) all() []registryPool {
	return append(append([]registryPool{}, d.Official...), d.UnOfficial...)
}

// keys parses every address of the entry.
func (p registryPool) keys() (PoolKeys, error) {
	keys := PoolKeys{
		BaseDecimals:  p.BaseDecimals,
		QuoteDecimals: p.QuoteDecimals,
	}
	fields := []struct {
		name string
		src  string
		dst  *solana.PublicKey
	}{
		{"id", p.ID, &keys.AmmID},
		{"authority", p.Authority, &keys.Authority},
		{"baseMint", p.BaseMint, &keys.BaseMint},
		{"quoteMint", p.QuoteMint, &keys.QuoteMint},
		{"lpMint", p.LpMint, &keys.LpMint},
		{"openOrders", p.OpenOrders, &keys.OpenOrders},
		{"targetOrders", p.TargetOrders, &keys.TargetOrders},
		{"baseVault", p.BaseVault, &keys.BaseVault},
		{"quoteVault", p.QuoteVault, &keys.QuoteVault},
		{"marketId", p.MarketID, &keys.MarketID},
		{"marketAuthority", p.MarketAuthority, &keys.MarketAuthority},
		{"marketBaseVault", p.MarketBaseVault, &keys.MarketBaseVault},
		{"marketQuoteVault", p.MarketQuoteVault, &keys.MarketQuoteVault},
		{"marketBids", p.MarketBids, &keys.MarketBids},
		{"marketAsks", p.MarketAsks, &keys.MarketAsks},
		{"marketEventQueue", p.MarketEventQueue, &keys.MarketEventQueue},
	}
	for _, f := range fields {
		key, err := solana.PublicKeyFromBase58(f.src)
		if err != nil {
			return PoolKeys{}, fmt.Errorf("raydium: pool %s: parse %s %q: %w", p.ID, f.name, f.src, err)
		}
		*f.dst = key
	}
	return keys, nil
}

// fetch loads the registry document from cache or over HTTP. The document is
// several megabytes; a cache hit saves both the transfer and the registry's
// rate limits.
func (r *Registry) fetch(ctx context.Context) (registryDoc, error) {
	var doc registryDoc

	if r.cache != nil {
		data, ok, err := r.cache.Get(ctx, registryCacheKey)
		if err != nil {
			r.logger.Warn("registry cache read failed", slog.String("error", err.Error()))
		} else if ok {
			if err := json.Unmarshal(data, &doc); err == nil {
				r.logger.Debug("registry served from cache")
				return doc, nil
			}
			r.logger.Warn("registry cache entry corrupt, refetching")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return registryDoc{}, fmt.Errorf("raydium: create registry request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return registryDoc{}, fmt.Errorf("raydium: fetch registry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return registryDoc{}, fmt.Errorf("raydium: fetch registry: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return registryDoc{}, fmt.Errorf("raydium: read registry: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return registryDoc{}, fmt.Errorf("raydium: decode registry: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, registryCacheKey, data); err != nil {
			r.logger.Warn("registry cache write failed", slog.String("error", err.Error()))
		}
	}
	return doc, nil
}
